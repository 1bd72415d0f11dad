// Planning HTTP handlers: project requirements and cost estimates.
//
//   - POST /requirements, GET /requirements
//   - POST /cost-estimate, GET /cost-estimates
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/estimate"
	"github.com/planora/planora-backend/internal/services"
	"github.com/planora/planora-backend/internal/utils"
)

// RequirementSavedResponse acknowledges a stored brief.
type RequirementSavedResponse struct {
	Message       string `json:"message"       example:"Requirements saved"`
	RequirementID string `json:"requirementId" example:"9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"`
}

// EstimateRequest is the estimation payload. Area and NumRooms accept JSON
// numbers or numeric strings.
type EstimateRequest struct {
	ProjectType  string          `json:"project_type"  example:"3BHK" enums:"1BHK,2BHK,3BHK,Villa,Commercial"`
	Area         utils.FlexFloat `json:"area"          swaggertype:"number" example:"1200"`
	Location     string          `json:"location"      example:"Pune"`
	QualityLevel string          `json:"quality_level" example:"Medium" enums:"Low,Medium,High,Luxury"`
	NumRooms     utils.FlexInt   `json:"num_rooms"     swaggertype:"integer" example:"3"`
}

// EstimateResponse carries the integer-rounded breakdown.
type EstimateResponse struct {
	Message    string             `json:"message"    example:"Estimate calculated and saved"`
	EstimateID string             `json:"estimateId" example:"1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e"`
	Breakdown  estimate.Breakdown `json:"breakdown"`
}

// SubmitRequirements godoc
// @ID          submitRequirements
// @Summary     Save a project brief
// @Description Any JSON object is accepted; user_id, status and timestamps are set by the server.
// @Tags        Requirements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      object  true  "Free-form brief"
// @Success     201   {object}  handlers.RequirementSavedResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /requirements [post]
func (h *Handlers) SubmitRequirements(c *gin.Context) {
	var details map[string]any
	if err := c.ShouldBindJSON(&details); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON object")
		return
	}
	id, err := h.requirements.Submit(c.Request.Context(), identity(c).ID, details)
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, RequirementSavedResponse{Message: "Requirements saved", RequirementID: id})
}

// ListRequirements godoc
// @ID          listRequirements
// @Summary     Own project briefs, newest first
// @Tags        Requirements
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.Requirement
// @Router      /requirements [get]
func (h *Handlers) ListRequirements(c *gin.Context) {
	reqs, err := h.requirements.List(c.Request.Context(), identity(c).ID)
	if err != nil {
		failFromError(c, err)
		return
	}
	if reqs == nil {
		reqs = []domain.Requirement{}
	}
	ok(c, http.StatusOK, reqs)
}

// CostEstimate godoc
// @ID          costEstimate
// @Summary     Estimate renovation cost
// @Description Computes material, labor, design and permit costs from the project type, area and quality level.
// @Tags        Estimates
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.EstimateRequest  true  "Estimation input"
// @Success     201   {object}  handlers.EstimateResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Area missing or not positive"
// @Router      /cost-estimate [post]
func (h *Handlers) CostEstimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "area and num_rooms must be numbers")
		return
	}
	if !req.Area.Set {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, estimate.ErrInvalidArea.Error())
		return
	}

	id, b, err := h.estimates.Estimate(c.Request.Context(), identity(c).ID, services.EstimateInput{
		ProjectType:  req.ProjectType,
		Area:         req.Area.Value,
		Location:     req.Location,
		QualityLevel: req.QualityLevel,
		NumRooms:     req.NumRooms.Value,
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	ok(c, http.StatusCreated, EstimateResponse{
		Message:    "Estimate calculated and saved",
		EstimateID: id,
		Breakdown:  b.Rounded(),
	})
}

// ListEstimates godoc
// @ID          listEstimates
// @Summary     Own cost estimates, newest first
// @Description Stored values are unrounded.
// @Tags        Estimates
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.CostEstimate
// @Router      /cost-estimates [get]
func (h *Handlers) ListEstimates(c *gin.Context) {
	list, err := h.estimates.List(c.Request.Context(), identity(c).ID)
	if err != nil {
		failFromError(c, err)
		return
	}
	if list == nil {
		list = []domain.CostEstimate{}
	}
	ok(c, http.StatusOK, list)
}
