// Assistant, design preview and collaboration HTTP handlers.
//
//   - POST /chat, GET /chat
//   - POST /generate-design            (multipart image + style)
//   - POST /collaborations             (multipart file + project_id)
//   - GET  /collaborations/{projectId}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
)

// ChatRequest is one message to the assistant. ContextType, when given,
// overrides the topic the assistant detects.
type ChatRequest struct {
	Message     string `json:"message"      binding:"required" example:"I need a plumber in Chennai"`
	ContextType string `json:"context_type"                    example:"project_help"`
}

// ChatResponse carries the assistant's answer.
type ChatResponse struct {
	Message     string `json:"message"      example:"Chat saved"`
	Response    string `json:"response"     example:"Here are plumbers near you..."`
	MessageID   string `json:"messageId"    example:"4d3c2b1a-0f9e-4d8c-9b7a-6f5e4d3c2b1a"`
	ContextType string `json:"context_type" example:"plumber"`
}

// DesignResponse carries the generated image as a data URL.
type DesignResponse struct {
	ImageURL string `json:"imageUrl" example:"data:image/png;base64,iVBORw0KGgo..."`
}

// FileUploadedResponse acknowledges a shared file.
type FileUploadedResponse struct {
	Message string `json:"message" example:"File uploaded"`
	FileID  string `json:"fileId"  example:"2e3f4a5b-6c7d-4e8f-9a0b-1c2d3e4f5a6b"`
}

// Chat godoc
// @ID          chat
// @Summary     Ask the assistant
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.ChatRequest  true  "Message"
// @Success     201   {object}  handlers.ChatResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required")
		return
	}
	m, err := h.chat.Send(c.Request.Context(), identity(c).ID, req.Message, req.ContextType)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, ChatResponse{
		Message:     "Chat saved",
		Response:    m.Response,
		MessageID:   m.ID,
		ContextType: m.ContextType,
	})
}

// ChatHistory godoc
// @ID          chatHistory
// @Summary     Conversation history
// @Description Up to 50 exchanges, oldest first.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.ChatMessage
// @Router      /chat [get]
func (h *Handlers) ChatHistory(c *gin.Context) {
	msgs, err := h.chat.History(c.Request.Context(), identity(c).ID)
	if err != nil {
		failFromError(c, err)
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	ok(c, http.StatusOK, msgs)
}

// GenerateDesign godoc
// @ID          generateDesign
// @Summary     AI design preview
// @Description Sends the room photo to the image model and returns the rendering. Upstream failures carry the provider's message in details.
// @Tags        Design
// @Accept      multipart/form-data
// @Produce     json
// @Param       image  formData  file    true   "Room photo"
// @Param       style  formData  string  false  "Design style (default modern)"
// @Success     200  {object}  handlers.DesignResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No image"
// @Failure     500  {object}  handlers.ErrorResponse  "AI generation failed"
// @Router      /generate-design [post]
func (h *Handlers) GenerateDesign(c *gin.Context) {
	img, done, err := formUpload(c, "image")
	if err != nil {
		badForm(c, err)
		return
	}
	defer done()

	url, err := h.designs.Generate(c.Request.Context(), c.PostForm("style"), img)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusOK, DesignResponse{ImageURL: url})
}

// UploadCollaboration godoc
// @ID          uploadCollaboration
// @Summary     Share a file on a project
// @Tags        Collaborations
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file         formData  file    true   "File"
// @Param       project_id   formData  string  true   "Project ID"
// @Param       description  formData  string  false  "Description"
// @Success     201  {object}  handlers.FileUploadedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No file uploaded"
// @Router      /collaborations [post]
func (h *Handlers) UploadCollaboration(c *gin.Context) {
	file, done, err := formUpload(c, "file")
	if err != nil {
		badForm(c, err)
		return
	}
	defer done()

	id, err := h.collaborations.Upload(c.Request.Context(), identity(c), c.PostForm("project_id"), c.PostForm("description"), file)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, FileUploadedResponse{Message: "File uploaded", FileID: id})
}

// ListCollaborations godoc
// @ID          listCollaborations
// @Summary     Files shared on a project, newest first
// @Tags        Collaborations
// @Produce     json
// @Security    BearerAuth
// @Param       projectId  path      string  true  "Project ID"
// @Success     200  {array}   domain.Collaboration
// @Router      /collaborations/{projectId} [get]
func (h *Handlers) ListCollaborations(c *gin.Context) {
	files, err := h.collaborations.List(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		failFromError(c, err)
		return
	}
	if files == nil {
		files = []domain.Collaboration{}
	}
	ok(c, http.StatusOK, files)
}
