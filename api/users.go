package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/service/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	service users.UserUseCase
	log     *zap.Logger
}

type updateProfileRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone" binding:"omitempty,e164"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func NewUserHandler(service users.UserUseCase, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

func (h *UserHandler) Register(router *gin.RouterGroup) {
	router.GET("/profile", h.profile)
	router.PUT("/profile", h.updateProfile)
	router.GET("/bookings", h.bookings)
	router.POST("/change-password", h.changePassword)
}

func (h *UserHandler) profile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, h.log, errs.Unauthorized("authentication required"))
		return
	}
	u, err := h.service.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "profile retrieved", u)
}

func (h *UserHandler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}
	user := currentUser(c)
	if user == nil {
		respondError(c, h.log, errs.Unauthorized("authentication required"))
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), user.ID, domain.ProfilePatch(req))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "profile updated", u)
}

func (h *UserHandler) bookings(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, h.log, errs.Unauthorized("authentication required"))
		return
	}
	list, err := h.service.BookingHistory(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "booking history retrieved", list)
}

func (h *UserHandler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}
	user := currentUser(c)
	if user == nil {
		respondError(c, h.log, errs.Unauthorized("authentication required"))
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), user.Email, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "password changed", nil)
}
