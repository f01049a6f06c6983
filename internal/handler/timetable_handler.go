package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

type entryLister interface {
	ListEntries(ctx context.Context, versionID int64) ([]models.Entry, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	builder   *service.ScheduleBuilder
	entries   entryLister
	validator *validator.Validate
}

// NewTimetableHandler constructs the timetable generation handler.
func NewTimetableHandler(builder *service.ScheduleBuilder, entries entryLister) *TimetableHandler {
	return &TimetableHandler{builder: builder, entries: entries, validator: validator.New()}
}

// Generate godoc
// @Summary Generate a new timetable version
// @Description Runs the CSP or genetic solver over the current catalog and persists the result as a new Version. When async is true the solve is queued and the response carries status=processing immediately.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest true "Generate request"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload"))
		return
	}

	method := models.SolverMethod(req.Algorithm)
	ctx := c.Request.Context()

	if req.Async {
		if err := h.builder.GenerateInBackground(ctx, req.Name, method); err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, dto.GenerateResponse{
			Status:  string(models.VersionProcessing),
			Message: "schedule generation queued",
		}, nil)
		return
	}

	version, err := h.builder.GenerateAndSave(ctx, req.Name, method)
	if err != nil && err != appErrors.ErrInfeasible {
		response.Error(c, err)
		return
	}

	var entryCount int
	if version != nil && h.entries != nil {
		if entries, listErr := h.entries.ListEntries(ctx, version.ID); listErr == nil {
			entryCount = len(entries)
		}
	}

	resp := dto.GenerateResponse{EntryCount: entryCount}
	if version != nil {
		resp.VersionID = version.ID
		resp.Status = string(version.Status)
		resp.IsValid = version.IsValid
		resp.FitnessScore = version.FitnessScore
	}

	if err == appErrors.ErrInfeasible {
		resp.Message = "solver ran to completion without satisfying every hard constraint"
		response.JSON(c, http.StatusConflict, resp, nil)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
