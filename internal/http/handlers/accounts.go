// Account HTTP handlers.
//
//   - POST /register                  (client signup)
//   - POST /login                     (client or professional login)
//   - PUT  /users/{id}/update         (owner only)
//   - POST /professional-register     (multipart, optional degree file)
//   - PUT  /professionals/{id}/update (owner only, multipart documents)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/services"
	"github.com/planora/planora-backend/internal/utils"
)

// RegisterRequest is the client signup payload.
type RegisterRequest struct {
	Name     string `json:"name"     binding:"required" example:"Asha Rao"`
	Email    string `json:"email"    binding:"required" example:"asha@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
	Phone    string `json:"phone"                       example:"+91 98450 12345"`
	Location string `json:"location"                    example:"Bengaluru"`
}

// LoginRequest selects the account collection with Role ("user" when empty).
type LoginRequest struct {
	Email    string `json:"email"    binding:"required" example:"asha@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
	Role     string `json:"role"                        example:"user" enums:"user,professional"`
}

// UpdateUserRequest carries optional profile changes.
type UpdateUserRequest struct {
	Name     string `json:"name"     example:"Asha R."`
	Phone    string `json:"phone"    example:"+91 98450 12345"`
	Location string `json:"location" example:"Mysuru"`
}

// SessionResponse is returned by signup, login and profile updates.
type SessionResponse struct {
	Message string               `json:"message" example:"Login successful"`
	Token   string               `json:"token"`
	User    services.AccountView `json:"user"`
}

// UpdateUserResponse carries the refreshed profile and credential.
type UpdateUserResponse struct {
	Message string `json:"message" example:"Profile updated successfully"`
	Token   string `json:"token"`
	User    any    `json:"user"`
}

// ProfessionalCreatedResponse is returned by professional signup.
type ProfessionalCreatedResponse struct {
	Message        string `json:"message"        example:"Professional registered (pending verification)"`
	ProfessionalID string `json:"professionalId" example:"5f0c3c1e-7d1b-4b55-9a57-1f3f0c2b9e11"`
}

// UpdateProfessionalResponse carries the refreshed profile and credential.
type UpdateProfessionalResponse struct {
	Message        string `json:"message"        example:"Profile updated successfully"`
	ProfessionalID string `json:"professionalId"`
	Token          string `json:"token"`
	User           any    `json:"user"`
}

// Register godoc
// @ID          register
// @Summary     Register a client account
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Signup payload"
// @Success     201   {object}  handlers.SessionResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Email already registered"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password are required")
		return
	}
	s, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, SessionResponse{Message: "User registered successfully", Token: s.Token, User: s.User})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Checks the password against the user or professional collection, depending on role.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.SessionResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse  "Wrong password"
// @Failure     404   {object}  handlers.ErrorResponse  "Unknown account"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}
	s, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		failFromError(c, err)
		return
	}
	label := "User"
	if s.User.Role == auth.RoleProfessional {
		label = "Professional"
	}
	ok(c, http.StatusOK, SessionResponse{Message: label + " login successful", Token: s.Token, User: s.User})
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update own client profile
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                      true  "User ID"
// @Param       body  body      handlers.UpdateUserRequest  true  "Profile changes"
// @Success     200   {object}  handlers.UpdateUserResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     403   {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /users/{id}/update [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, token, err := h.accounts.UpdateUser(c.Request.Context(), identity(c), c.Param("id"), services.UserPatch{
		Name:     req.Name,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, UpdateUserResponse{Message: "Profile updated successfully", Token: token, User: u})
}

// RegisterProfessional godoc
// @ID          registerProfessional
// @Summary     Register a professional account
// @Description Multipart form. The optional degree file is stored and linked to the profile.
// @Tags        Accounts
// @Accept      multipart/form-data
// @Produce     json
// @Param       name              formData  string  true   "Full name"
// @Param       email             formData  string  true   "Email"
// @Param       password          formData  string  true   "Password"
// @Param       specialization    formData  string  false  "Specialization"
// @Param       phone             formData  string  false  "Phone"
// @Param       city              formData  string  false  "City"
// @Param       state             formData  string  false  "State"
// @Param       bio               formData  string  false  "Bio"
// @Param       experience_years  formData  integer false  "Years of experience"
// @Param       hourly_rate       formData  number  false  "Hourly rate"
// @Param       degree            formData  file    false  "Degree document"
// @Success     201  {object}  handlers.ProfessionalCreatedResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /professional-register [post]
func (h *Handlers) RegisterProfessional(c *gin.Context) {
	years, err := utils.OptionalInt(c.PostForm("experience_years"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "experience_years must be a number")
		return
	}
	rate, err := utils.OptionalFloat(c.PostForm("hourly_rate"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "hourly_rate must be a number")
		return
	}
	degree, done, err := formUpload(c, "degree")
	if err != nil {
		badForm(c, err)
		return
	}
	defer done()

	in := services.ProfessionalInput{
		Name:           c.PostForm("name"),
		Email:          c.PostForm("email"),
		Password:       c.PostForm("password"),
		Specialization: c.PostForm("specialization"),
		Phone:          c.PostForm("phone"),
		City:           c.PostForm("city"),
		State:          c.PostForm("state"),
		Bio:            c.PostForm("bio"),
	}
	if years != nil {
		in.ExperienceYears = *years
	}
	if rate != nil {
		in.HourlyRate = *rate
	}

	id, err := h.accounts.RegisterProfessional(c.Request.Context(), in, degree)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, ProfessionalCreatedResponse{
		Message:        "Professional registered (pending verification)",
		ProfessionalID: id,
	})
}

// professionalDocFields are the multipart file fields accepted on update.
var professionalDocFields = []string{"degree", "license", "idProof", "profilePic"}

// UpdateProfessional godoc
// @ID          updateProfessional
// @Summary     Update own professional profile
// @Description Multipart form. Only listed fields are applied; documents replace the stored ones.
// @Tags        Accounts
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id                path      string  true   "Professional ID"
// @Param       name              formData  string  false  "Full name"
// @Param       specialization    formData  string  false  "Specialization"
// @Param       phone             formData  string  false  "Phone"
// @Param       city              formData  string  false  "City"
// @Param       state             formData  string  false  "State"
// @Param       bio               formData  string  false  "Bio"
// @Param       experience_years  formData  integer false  "Years of experience"
// @Param       hourly_rate       formData  number  false  "Hourly rate"
// @Param       degree            formData  file    false  "Degree document"
// @Param       license           formData  file    false  "License document"
// @Param       idProof           formData  file    false  "Identity proof"
// @Param       profilePic        formData  file    false  "Profile picture"
// @Success     200  {object}  handlers.UpdateProfessionalResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /professionals/{id}/update [put]
func (h *Handlers) UpdateProfessional(c *gin.Context) {
	years, err := utils.OptionalInt(c.PostForm("experience_years"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "experience_years must be a number")
		return
	}
	rate, err := utils.OptionalFloat(c.PostForm("hourly_rate"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "hourly_rate must be a number")
		return
	}

	docs := make(map[string]services.Upload)
	for _, field := range professionalDocFields {
		up, done, err := formUpload(c, field)
		if err != nil {
			badForm(c, err)
			return
		}
		defer done()
		if up != nil {
			docs[field] = *up
		}
	}

	patch := services.ProfessionalPatch{
		Name:            strings.TrimSpace(c.PostForm("name")),
		Specialization:  strings.TrimSpace(c.PostForm("specialization")),
		Phone:           strings.TrimSpace(c.PostForm("phone")),
		City:            strings.TrimSpace(c.PostForm("city")),
		State:           strings.TrimSpace(c.PostForm("state")),
		Bio:             strings.TrimSpace(c.PostForm("bio")),
		ExperienceYears: years,
		HourlyRate:      rate,
	}

	id := c.Param("id")
	p, token, err := h.accounts.UpdateProfessional(c.Request.Context(), identity(c), id, patch, docs)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, UpdateProfessionalResponse{
		Message:        "Profile updated successfully",
		ProfessionalID: id,
		Token:          token,
		User:           p,
	})
}
