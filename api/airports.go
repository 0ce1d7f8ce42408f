package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/service/airports"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AirportHandler struct {
	service airports.AirportUseCase
	log     *zap.Logger
}

func NewAirportHandler(service airports.AirportUseCase, log *zap.Logger) *AirportHandler {
	return &AirportHandler{service: service, log: log}
}

func (h *AirportHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/search", h.search)
}

func (h *AirportHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "airports retrieved", list)
}

func (h *AirportHandler) search(c *gin.Context) {
	list, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "airports found", list)
}
