package availability

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	availabilityService "github.com/jwalitptl/clinic-api/internal/service/availability"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *availabilityService.Service
}

func NewHandler(service *availabilityService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	availability := r.Group("/availability")
	{
		availability.POST("", middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor), h.CreateAvailability)
		availability.DELETE("/:id", middleware.RequireRoles(model.RoleAdmin, model.RoleDoctor), h.DeleteAvailability)
		availability.GET("/my", middleware.RequireRoles(model.RoleDoctor), h.ListMine)
		availability.GET("/doctor/:id", h.ListFreeSlots)
		availability.GET("", middleware.RequireRoles(model.RoleAdmin), h.ListAll)
	}
}

func (h *Handler) CreateAvailability(c *gin.Context) {
	var req model.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidInput("invalid date, expected YYYY-MM-DD", err))
		return
	}
	start, err := model.ParseTimeOfDay(req.StartTime)
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidInput("invalid start time, expected HH:MM", err))
		return
	}
	end, err := model.ParseTimeOfDay(req.EndTime)
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidInput("invalid end time, expected HH:MM", err))
		return
	}

	identity, _ := middleware.CurrentIdentity(c)
	slot, err := h.service.Create(c.Request.Context(), req.DoctorID, date, start, end, identity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, slot)
}

func (h *Handler) DeleteAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidInput("invalid availability ID", err))
		return
	}

	identity, _ := middleware.CurrentIdentity(c)
	if err := h.service.Delete(c.Request.Context(), id, identity); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}

// ListFreeSlots returns the free slots of one doctor. This is the read
// path members use to pick a slot to book.
func (h *Handler) ListFreeSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidInput("invalid doctor ID", err))
		return
	}

	slots, err := h.service.ListFreeForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) ListMine(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	slots, err := h.service.ListMine(c.Request.Context(), identity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) ListAll(c *gin.Context) {
	slots, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, slots)
}
