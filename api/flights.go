package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FlightHandler struct {
	service flights.FlightUseCase
	log     *zap.Logger
}

type searchFlightsRequest struct {
	Origin        string            `json:"origin" binding:"required"`
	Destination   string            `json:"destination" binding:"required"`
	DepartureDate string            `json:"departureDate" binding:"required"`
	CabinClass    domain.CabinClass `json:"cabinClass" binding:"omitempty,cabinclass"`
	Passengers    int               `json:"passengers" binding:"omitempty,min=1,max=9"`
}

func NewFlightHandler(service flights.FlightUseCase, log *zap.Logger) *FlightHandler {
	return &FlightHandler{service: service, log: log}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("/search", h.search)
	router.GET("/all", h.list)
	router.GET("/:id", h.get)
}

func (h *FlightHandler) search(c *gin.Context) {
	var req searchFlightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, bindError(err))
		return
	}
	res, err := h.service.Search(c.Request.Context(), flights.SearchInput(req))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "flights found", res)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "flights retrieved", list)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "flight retrieved", flight)
}
