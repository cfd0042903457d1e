package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kama-line/service-reservation/internal/application"
	"github.com/kama-line/service-reservation/internal/auth"
	"github.com/kama-line/service-reservation/internal/domain/reservation"
	"github.com/kama-line/service-reservation/internal/middleware"
)

// defaultHistoryLimit caps the admin history listing when the query string
// does not override it.
const defaultHistoryLimit = 30

// AdminHandler exposes the reservation admin API used by the back-office.
type AdminHandler struct {
	service *application.ReservationService
	logger  *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.ReservationService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{service: service, logger: logger}
}

// RegisterRoutes registers all admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/reservations", h.ListActive)
		admin.GET("/reservations/history", h.ListHistory)
		admin.GET("/reservations/:id", h.GetReservation)
		admin.POST("/reservations/:id/approve", h.Approve)
		admin.GET("/stats", h.Stats)
	}
}

// ListActive handles GET /api/v1/admin/reservations.
func (h *AdminHandler) ListActive(c *gin.Context) {
	views, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, toAdminDTOs(views))
}

// ListHistory handles GET /api/v1/admin/reservations/history.
func (h *AdminHandler) ListHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	views, err := h.service.ListHistory(c.Request.Context(), limit)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, toAdminDTOs(views))
}

// GetReservation handles GET /api/v1/admin/reservations/:id.
func (h *AdminHandler) GetReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid reservation ID")
		return
	}

	dto, err := h.service.GetReservation(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, dto)
}

// Approve handles POST /api/v1/admin/reservations/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid reservation ID")
		return
	}

	outcome, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}

	// Audit trail: which admin account approved the reservation.
	if subject, ok := middleware.GetSubject(c); ok {
		h.logger.Info("reservation approved",
			zap.Int64("reservation_id", id),
			zap.String("approved_by", subject),
			zap.Bool("already_confirmed", outcome.AlreadyConfirmed),
		)
	}

	Success(c, gin.H{
		"reservation_id":    outcome.Reservation.ID(),
		"status":            string(outcome.Reservation.Status()),
		"already_confirmed": outcome.AlreadyConfirmed,
	})
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, stats)
}

func toAdminDTOs(views []reservation.AdminView) []application.AdminReservationDTO {
	out := make([]application.AdminReservationDTO, len(views))
	for i, v := range views {
		out[i] = application.NewAdminReservationDTO(v)
	}
	return out
}
