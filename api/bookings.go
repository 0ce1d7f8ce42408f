package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     *zap.Logger
}

type passengerRequest struct {
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	DateOfBirth     string `json:"dateOfBirth" binding:"required"`
	Nationality     string `json:"nationality" binding:"required"`
	PassportNumber  string `json:"passportNumber"`
	AadhaarNumber   string `json:"aadhaarNumber"`
	Age             *int   `json:"age" binding:"omitempty,min=0,max=120"`
	SeatNumber      string `json:"seatNumber"`
	SpecialRequests string `json:"specialRequests"`
}

type createBookingRequest struct {
	FlightID        string             `json:"flightId" binding:"required"`
	ReturnFlightID  string             `json:"returnFlightId"`
	CabinClass      domain.CabinClass  `json:"cabinClass" binding:"required,cabinclass"`
	Passengers      []passengerRequest `json:"passengers" binding:"required,min=1,max=9,dive"`
	SpecialRequests string             `json:"specialRequests"`
}

type updateBookingRequest struct {
	Status          *domain.BookingStatus `json:"status" binding:"omitempty,bookingstatus"`
	SpecialRequests *string               `json:"specialRequests"`
}

func NewBookingHandler(service booking.BookingUseCase, log *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}
	user := currentUser(c)
	if user == nil {
		respondError(c, h.log, errs.Unauthorized("authentication required"))
		return
	}

	passengers := make([]domain.Passenger, len(req.Passengers))
	for i, p := range req.Passengers {
		passengers[i] = domain.Passenger{
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			DateOfBirth:     p.DateOfBirth,
			Nationality:     p.Nationality,
			PassportNumber:  p.PassportNumber,
			NationalID:      p.AadhaarNumber,
			Age:             p.Age,
			SeatNumber:      p.SeatNumber,
			SpecialRequests: p.SpecialRequests,
		}
	}

	res, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:          user.ID,
		FlightID:        req.FlightID,
		ReturnFlightID:  req.ReturnFlightID,
		CabinClass:      req.CabinClass,
		Passengers:      passengers,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "booking created", res)
}

func (h *BookingHandler) list(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, h.log, errs.Unauthorized("authentication required"))
		return
	}
	list, err := h.service.ListUserBookings(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "bookings retrieved", list)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, ok := h.owned(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, "booking retrieved", b)
}

func (h *BookingHandler) update(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}
	if _, ok := h.owned(c); !ok {
		return
	}
	b, err := h.service.UpdateBooking(c.Request.Context(), c.Param("id"), domain.BookingPatch{
		Status:          req.Status,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "booking updated", b)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "booking cancelled", b)
}

// owned loads the booking in the path and reports other users' bookings as not found.
func (h *BookingHandler) owned(c *gin.Context) (*domain.Booking, bool) {
	user := currentUser(c)
	if user == nil {
		respondError(c, h.log, errs.Unauthorized("authentication required"))
		return nil, false
	}
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	if b.UserID != user.ID {
		respondError(c, h.log, errs.NotFound("booking not found"))
		return nil, false
	}
	return b, true
}
