package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

// ScheduleConfigHandler exposes the global schedule configuration: the
// working day boundaries, period layout, breaks, and active days that
// generateTimeSlots expands into concrete TimeSlots.
type ScheduleConfigHandler struct {
	config    *service.ScheduleConfigService
	validator *validator.Validate
}

// NewScheduleConfigHandler constructs the schedule configuration handler.
func NewScheduleConfigHandler(config *service.ScheduleConfigService) *ScheduleConfigHandler {
	return &ScheduleConfigHandler{config: config, validator: validator.New()}
}

// Get godoc
// @Summary Get the current schedule configuration
// @Tags ScheduleConfig
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule-config [get]
func (h *ScheduleConfigHandler) Get(c *gin.Context) {
	cfg, err := h.config.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Update godoc
// @Summary Replace the schedule configuration
// @Description Persists new day boundaries, periods, and breaks, regenerates time slots, discards every existing timetable version, and queues a background regeneration.
// @Tags ScheduleConfig
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleConfigRequest true "Schedule configuration"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedule-config [put]
func (h *ScheduleConfigHandler) Update(c *gin.Context) {
	var req dto.ScheduleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule configuration payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule configuration payload"))
		return
	}

	breaks := make([]models.ScheduleBreak, 0, len(req.Breaks))
	for _, b := range req.Breaks {
		breaks = append(breaks, models.ScheduleBreak{
			Position:        b.Position,
			StartTime:       b.StartTime,
			DurationMinutes: b.DurationMinutes,
		})
	}
	days := make(models.StringSet, 0, len(req.ScheduleDays))
	days = append(days, req.ScheduleDays...)

	cfg := models.ScheduleConfig{
		DayStartTime:          req.DayStartTime,
		DayEndTime:            req.DayEndTime,
		NumberOfPeriods:       req.NumberOfPeriods,
		PeriodDurationMinutes: req.PeriodDurationMinutes,
		Breaks:                breaks,
		LunchBreakStart:       req.LunchBreakStart,
		LunchBreakEnd:         req.LunchBreakEnd,
		ScheduleDays:          days,
	}

	updated, err := h.config.Update(c.Request.Context(), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
