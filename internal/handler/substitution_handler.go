package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

// SubstitutionHandler exposes the substitute-teacher workflow: automated
// assignment, ranked suggestions, and the manual assign/cancel paths.
type SubstitutionHandler struct {
	auto      *service.AutoAssignmentEngine
	manual    *service.SubstitutionService
	validator *validator.Validate
}

// NewSubstitutionHandler constructs the substitution handler.
func NewSubstitutionHandler(auto *service.AutoAssignmentEngine, manual *service.SubstitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{auto: auto, manual: manual, validator: validator.New()}
}

// AutoAssign godoc
// @Summary Auto-assign substitutes for an absent teacher's classes
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.AutoAssignRequest true "Auto-assign request"
// @Success 200 {object} response.Envelope
// @Router /substitutions/auto-assign [post]
func (h *SubstitutionHandler) AutoAssign(c *gin.Context) {
	var req dto.AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid auto-assign payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto-assign payload"))
		return
	}
	report, err := h.auto.AutoAssign(c.Request.Context(), req.TeacherID, req.Date, req.AutoNotify)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// RankedSuggestions godoc
// @Summary Rank every teacher as a substitute candidate for one entry
// @Tags Substitutions
// @Produce json
// @Param entry_id query int true "Entry ID"
// @Param top_n query int false "Number of candidates to return (default 5)"
// @Success 200 {object} response.Envelope
// @Router /substitutions/suggestions [get]
func (h *SubstitutionHandler) RankedSuggestions(c *gin.Context) {
	var query dto.RankedSuggestionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	topN := query.TopN
	if topN == 0 {
		topN = 5
	}
	candidates, err := h.auto.RankedSuggestions(c.Request.Context(), query.EntryID, topN)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, nil)
}

// AssignSubstitute godoc
// @Summary Manually assign a specific substitute teacher to one class
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.AssignSubstituteRequest true "Assign request"
// @Success 200 {object} response.Envelope
// @Router /substitutions/assign [post]
func (h *SubstitutionHandler) AssignSubstitute(c *gin.Context) {
	var req dto.AssignSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assign payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assign payload"))
		return
	}
	sub, err := h.manual.AssignSubstitute(c.Request.Context(), req.EntryID, req.Date, req.OriginalTeacherID, req.SubstituteTeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// CancelClass godoc
// @Summary Cancel a class instead of assigning a substitute
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.CancelClassRequest true "Cancel request"
// @Success 200 {object} response.Envelope
// @Router /substitutions/cancel [post]
func (h *SubstitutionHandler) CancelClass(c *gin.Context) {
	var req dto.CancelClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancel payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload"))
		return
	}
	sub, err := h.manual.CancelClass(c.Request.Context(), req.EntryID, req.Date, req.OriginalTeacherID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}
