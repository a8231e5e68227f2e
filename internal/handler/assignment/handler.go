package assignment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/internal/service/assignment"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

var validate = validator.New()

type Handler struct {
	service *assignment.Service
}

func NewHandler(service *assignment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) AssignStaff(c *gin.Context) {
	staffID, slotID, ok := h.bindAssignRequest(c)
	if !ok {
		return
	}

	result, err := h.service.AssignStaffToSlot(c.Request.Context(), staffID, slotID)
	if err != nil {
		h.writeAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *Handler) UnassignStaff(c *gin.Context) {
	staffID, slotID, ok := h.bindAssignRequest(c)
	if !ok {
		return
	}

	if err := h.service.UnassignStaffFromSlot(c.Request.Context(), staffID, slotID); err != nil {
		h.writeAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ListAssignments(c *gin.Context) {
	slotID, err := uuid.Parse(c.Query("slot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid slot ID"})
		return
	}

	assignments, err := h.service.ListAssignments(c.Request.Context(), slotID)
	if err != nil {
		h.writeAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": assignments})
}

func (h *Handler) bindAssignRequest(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	var req model.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return uuid.Nil, uuid.Nil, false
	}
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return uuid.Nil, uuid.Nil, false
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid staff ID"})
		return uuid.Nil, uuid.Nil, false
	}
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid slot ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return staffID, slotID, true
}

func (h *Handler) writeAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.StaffNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "staff member not found"})
	case errors.Is(err, apperrors.SlotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "slot not found"})
	case errors.Is(err, apperrors.StaffInactive):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "staff member is not active"})
	case errors.Is(err, apperrors.CenterMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "staff member belongs to a different center"})
	default:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": appErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	assignments := r.Group("/assignments")
	{
		assignments.POST("", h.AssignStaff)
		assignments.DELETE("", h.UnassignStaff)
		assignments.GET("", h.ListAssignments)
	}
}
