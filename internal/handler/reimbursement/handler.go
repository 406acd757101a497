package reimbursement

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	reimbursementService "github.com/jwalitptl/clinic-api/internal/service/reimbursement"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *reimbursementService.Service
}

func NewHandler(service *reimbursementService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	claims := r.Group("/reimbursements")
	{
		claims.POST("", middleware.RequireRoles(model.RoleMember), h.SubmitClaim)
		claims.GET("", middleware.RequireRoles(model.RoleAdmin), h.ListAllClaims)
		claims.GET("/my", middleware.RequireRoles(model.RoleMember), h.ListMyClaims)
		claims.GET("/pending", middleware.RequireRoles(model.RoleAdmin), h.ListPendingClaims)
		claims.GET("/:id", h.GetClaim)
		claims.POST("/:id/approve", middleware.RequireRoles(model.RoleAdmin), h.ApproveClaim)
		claims.POST("/:id/reject", middleware.RequireRoles(model.RoleAdmin), h.RejectClaim)
	}
}

func (h *Handler) SubmitClaim(c *gin.Context) {
	var req model.SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	identity, _ := middleware.CurrentIdentity(c)
	claim, err := h.service.Submit(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, claim)
}

func (h *Handler) GetClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidInput("invalid reimbursement ID", err))
		return
	}

	identity, _ := middleware.CurrentIdentity(c)
	claim, err := h.service.Get(c.Request.Context(), id, identity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, claim)
}

func (h *Handler) ListAllClaims(c *gin.Context) {
	claims, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, claims)
}

func (h *Handler) ListMyClaims(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	claims, err := h.service.ListMine(c.Request.Context(), identity.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, claims)
}

func (h *Handler) ListPendingClaims(c *gin.Context) {
	claims, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, claims)
}

func (h *Handler) ApproveClaim(c *gin.Context) {
	h.review(c, true)
}

func (h *Handler) RejectClaim(c *gin.Context) {
	h.review(c, false)
}

func (h *Handler) review(c *gin.Context, approve bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidInput("invalid reimbursement ID", err))
		return
	}

	// The notes body is optional.
	var req model.ReviewClaimRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithValidationError(c, err)
			return
		}
	}

	claim, err := h.service.Review(c.Request.Context(), id, approve, req.Notes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, claim)
}
