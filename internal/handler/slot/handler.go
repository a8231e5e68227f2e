package slot

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/internal/service/slot"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

var validate = validator.New()

type Handler struct {
	service *slot.Service
}

func NewHandler(service *slot.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateSlot(c *gin.Context) {
	var req model.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	centerID, err := uuid.Parse(req.CenterID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid center ID"})
		return
	}

	newSlot := &model.Slot{
		CenterID:    centerID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		VaccineType: req.VaccineType,
		DoseNumber:  req.DoseNumber,
	}

	if err := h.service.CreateSlot(c.Request.Context(), newSlot); err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &appErr) && appErr.Code == apperrors.ErrValidation:
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": appErr.Message})
		case errors.As(err, &appErr) && appErr.Code == apperrors.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": appErr.Message})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": newSlot})
}

func (h *Handler) GetSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid slot ID"})
		return
	}

	result, err := h.service.GetSlot(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.SlotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "slot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *Handler) ListSlots(c *gin.Context) {
	filters := &model.SlotFilters{}

	if id := c.Query("center_id"); id != "" {
		centerID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid center ID"})
			return
		}
		filters.CenterID = centerID
	}

	if v := c.Query("vaccine_type"); v != "" {
		filters.VaccineType = v
	}

	if c.Query("active_only") == "true" {
		filters.ActiveOnly = true
	}

	if date := c.Query("start_date"); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid start date"})
			return
		}
		filters.StartDate = parsed
	}

	if date := c.Query("end_date"); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid end date"})
			return
		}
		filters.EndDate = parsed
	}

	slots, err := h.service.ListSlots(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": slots})
}

func (h *Handler) DeactivateSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid slot ID"})
		return
	}

	if err := h.service.DeactivateSlot(c.Request.Context(), id); err != nil {
		if errors.Is(err, apperrors.SlotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "slot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	slots := r.Group("/slots")
	{
		slots.POST("", h.CreateSlot)
		slots.GET("", h.ListSlots)
		slots.GET("/:id", h.GetSlot)
		slots.POST("/:id/deactivate", h.DeactivateSlot)
	}
}
