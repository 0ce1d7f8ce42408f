package api

import (
	"net/http"
	"testing"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/identity"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var ann = &identity.User{ID: "u-1", Email: "ann@example.com"}

func validBookingBody() gin.H {
	return gin.H{
		"flightId":   "fl-1",
		"cabinClass": "ECONOMY",
		"passengers": []gin.H{{
			"firstName":     "Ann",
			"lastName":      "Lee",
			"dateOfBirth":   "1990-04-12",
			"nationality":   "IN",
			"aadhaarNumber": "1234",
		}},
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, zap.NewNop())
	c, w := newContext("POST", "/bookings", validBookingBody(), ann)

	created := &booking.CreateBookingResult{
		Booking: &domain.Booking{ID: "b-1", UserID: "u-1", Status: domain.BookingStatusPending, Reference: "ABCD1234"},
		ETicket: "ET-B-1",
	}
	mockService.On("CreateBooking", mock.Anything, mock.MatchedBy(func(in booking.CreateBookingInput) bool {
		return in.UserID == "u-1" && in.FlightID == "fl-1" && len(in.Passengers) == 1 && in.Passengers[0].NationalID == "1234"
	})).Return(created, nil).Once()

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var data struct {
		Booking domain.Booking `json:"booking"`
		ETicket string         `json:"eTicket"`
	}
	env := decodeEnvelope(t, w, &data)
	assert.True(t, env.Success)
	assert.Equal(t, "ABCD1234", data.Booking.Reference)
	assert.Equal(t, "ET-B-1", data.ETicket)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_BindErrors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(gin.H)
	}{
		{"Unknown cabin", func(b gin.H) { b["cabinClass"] = "LOUNGE" }},
		{"No passengers", func(b gin.H) { b["passengers"] = []gin.H{} }},
		{"Missing flight", func(b gin.H) { delete(b, "flightId") }},
		{"Passenger without nationality", func(b gin.H) { delete(b["passengers"].([]gin.H)[0], "nationality") }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			body := validBookingBody()
			tc.mutate(body)
			c, w := newContext("POST", "/bookings", body, ann)

			NewBookingHandler(mockService, zap.NewNop()).create(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decodeEnvelope(t, w, nil)
			assert.False(t, env.Success)
			assert.Equal(t, "validation", env.Error)
			mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
		})
	}
}

func TestBookingHandler_create_ServiceError(t *testing.T) {
	mockService := &MockBookingUseCase{}
	mockService.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, errs.Validation("not enough seats available")).Once()
	c, w := newContext("POST", "/bookings", validBookingBody(), ann)

	NewBookingHandler(mockService, zap.NewNop()).create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.Equal(t, "not enough seats available", env.Message)
}

func TestBookingHandler_get_OtherUsersBookingIsNotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	mockService.On("GetBooking", mock.Anything, "b-1").Return(&domain.Booking{ID: "b-1", UserID: "someone-else"}, nil).Once()
	c, w := newContext("GET", "/bookings/b-1", nil, ann)
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	NewBookingHandler(mockService, zap.NewNop()).get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeEnvelope(t, w, nil).Error)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, zap.NewNop())
	own := &domain.Booking{ID: "b-1", UserID: "u-1", Status: domain.BookingStatusPending}
	mockService.On("GetBooking", mock.Anything, "b-1").Return(own, nil)
	mockService.On("CancelBooking", mock.Anything, "b-1").Return(&domain.Booking{ID: "b-1", UserID: "u-1", Status: domain.BookingStatusCancelled}, nil).Once()
	mockService.On("CancelBooking", mock.Anything, "b-1").Return(nil, errs.Conflict("booking is already cancelled")).Once()

	c, w := newContext("DELETE", "/bookings/b-1", nil, ann)
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got domain.Booking
	decodeEnvelope(t, w, &got)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)

	c, w = newContext("DELETE", "/bookings/b-1", nil, ann)
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	handler.cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeEnvelope(t, w, nil).Error)
}

func TestBookingHandler_update(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, zap.NewNop())
	mockService.On("GetBooking", mock.Anything, "b-1").Return(&domain.Booking{ID: "b-1", UserID: "u-1"}, nil)
	mockService.On("UpdateBooking", mock.Anything, "b-1", mock.MatchedBy(func(p domain.BookingPatch) bool {
		return p.Status != nil && *p.Status == domain.BookingStatusConfirmed && p.SpecialRequests == nil
	})).Return(&domain.Booking{ID: "b-1", Status: domain.BookingStatusConfirmed}, nil).Once()

	c, w := newContext("PUT", "/bookings/b-1", gin.H{"status": "confirmed"}, ann)
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	handler.update(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext("PUT", "/bookings/b-1", gin.H{"status": "boarding"}, ann)
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	handler.update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNumberOfCalls(t, "UpdateBooking", 1)
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	mockService.On("ListUserBookings", mock.Anything, "u-1").Return([]domain.Booking{{ID: "b-1"}, {ID: "b-2"}}, nil).Once()
	c, w := newContext("GET", "/bookings", nil, ann)

	NewBookingHandler(mockService, zap.NewNop()).list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []domain.Booking
	decodeEnvelope(t, w, &got)
	assert.Len(t, got, 2)
}

func TestBookingHandler_RequiresUser(t *testing.T) {
	mockService := &MockBookingUseCase{}
	c, w := newContext("GET", "/bookings", nil, nil)

	NewBookingHandler(mockService, zap.NewNop()).list(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
