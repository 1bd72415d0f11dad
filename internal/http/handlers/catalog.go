// Directory and portfolio HTTP handlers.
//
//   - GET  /professionals        (filter: specialization, city, minRating, maxRate)
//   - GET  /professionals/{id}   (profile with projects and recent reviews)
//   - GET  /projects             (filter: category, location)
//   - GET  /projects/{id}
//   - POST /projects             (multipart, up to 10 images)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/services"
	"github.com/planora/planora-backend/internal/utils"
)

// ProjectCreatedResponse is returned after a project is stored.
type ProjectCreatedResponse struct {
	Message   string `json:"message"   example:"Project created"`
	ProjectID string `json:"projectId" example:"a3f1c2d4-0b8e-4f6a-9c11-2e5d7b8a9f00"`
}

// ListProfessionals godoc
// @ID          listProfessionals
// @Summary     Browse professionals
// @Description Every given filter must match. minRating and maxRate must be numeric.
// @Tags        Professionals
// @Produce     json
// @Param       specialization  query     string  false  "Exact specialization"
// @Param       city            query     string  false  "Exact city"
// @Param       minRating       query     number  false  "Minimum rating"
// @Param       maxRate         query     number  false  "Maximum hourly rate"
// @Success     200  {array}   domain.Professional
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /professionals [get]
func (h *Handlers) ListProfessionals(c *gin.Context) {
	minRating, err := utils.OptionalFloat(c.Query("minRating"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "minRating must be a number")
		return
	}
	maxRate, err := utils.OptionalFloat(c.Query("maxRate"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "maxRate must be a number")
		return
	}

	pros, err := h.professionals.List(c.Request.Context(), services.ProfessionalFilter{
		Specialization: c.Query("specialization"),
		City:           c.Query("city"),
		MinRating:      minRating,
		MaxRate:        maxRate,
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	if pros == nil {
		pros = []domain.Professional{}
	}
	ok(c, http.StatusOK, pros)
}

// GetProfessional godoc
// @ID          getProfessional
// @Summary     Professional profile
// @Tags        Professionals
// @Produce     json
// @Param       id   path      string  true  "Professional ID"
// @Success     200  {object}  services.ProfessionalProfile
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /professionals/{id} [get]
func (h *Handlers) GetProfessional(c *gin.Context) {
	p, err := h.professionals.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListProjects godoc
// @ID          listProjects
// @Summary     Browse projects
// @Tags        Projects
// @Produce     json
// @Param       category  query     string  false  "Exact category"
// @Param       location  query     string  false  "Case-insensitive location substring"
// @Success     200  {array}   domain.Project
// @Router      /projects [get]
func (h *Handlers) ListProjects(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context(), c.Query("category"), c.Query("location"))
	if err != nil {
		failFromError(c, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	ok(c, http.StatusOK, projects)
}

// GetProject godoc
// @ID          getProject
// @Summary     Project detail
// @Description The project with its professional's name, specialization and rating.
// @Tags        Projects
// @Produce     json
// @Param       id   path      string  true  "Project ID"
// @Success     200  {object}  services.ProjectDetail
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /projects/{id} [get]
func (h *Handlers) GetProject(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// CreateProject godoc
// @ID          createProject
// @Summary     Create a project
// @Tags        Projects
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       title        formData  string  true   "Title"
// @Param       category     formData  string  false  "Category"
// @Param       location     formData  string  false  "Location"
// @Param       area         formData  string  false  "Area"
// @Param       budget       formData  string  false  "Budget"
// @Param       description  formData  string  false  "Description"
// @Param       images       formData  file    false  "Images (up to 10)"
// @Success     201  {object}  handlers.ProjectCreatedResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /projects [post]
func (h *Handlers) CreateProject(c *gin.Context) {
	images, done, err := formUploads(c, "images")
	if err != nil {
		badForm(c, err)
		return
	}
	defer done()

	id, err := h.projects.Create(c.Request.Context(), identity(c), services.ProjectInput{
		Title:       c.PostForm("title"),
		Category:    c.PostForm("category"),
		Location:    c.PostForm("location"),
		Area:        c.PostForm("area"),
		Budget:      c.PostForm("budget"),
		Description: c.PostForm("description"),
	}, images)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, ProjectCreatedResponse{Message: "Project created", ProjectID: id})
}
