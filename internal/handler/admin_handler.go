package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pawhaven/service-booking/internal/application"
	"github.com/pawhaven/service-booking/internal/pkg/auth"
	"github.com/pawhaven/service-booking/internal/pkg/middleware"
	"github.com/pawhaven/service-booking/internal/pkg/response"
)

// AdminBookingHandler handles staff/admin HTTP requests for booking review.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes. Staff can review bookings;
// stats are admin-only.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffRole := middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW)
	{
		admin.GET("/bookings/pending", staffRole, h.ListPendingBookings)
		admin.GET("/bookings", staffRole, h.ListBookings)
		admin.PUT("/bookings/:id/approve", staffRole, h.ApproveBooking)
		admin.PUT("/bookings/:id/reject", staffRole, h.RejectBooking)
		admin.GET("/stats/bookings", adminRole, h.BookingStats)
	}
}

// ListPendingBookings handles GET /api/v1/admin/bookings/pending.
func (h *AdminBookingHandler) ListPendingBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListPendingBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListBookings handles GET /api/v1/admin/bookings. Supports ?service_type=,
// ?status=, ?from= and ?to= filters.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	query := application.AdminListQuery{
		ServiceType: c.Query("service_type"),
		Status:      c.Query("status"),
		From:        c.Query("from"),
		To:          c.Query("to"),
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListAllBookings(c.Request.Context(), query, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ApproveBooking handles PUT /api/v1/admin/bookings/:id/approve.
func (h *AdminBookingHandler) ApproveBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.ApproveBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "booking approved", result)
}

// RejectBooking handles PUT /api/v1/admin/bookings/:id/reject.
func (h *AdminBookingHandler) RejectBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.RejectBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "booking rejected", result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
