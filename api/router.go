package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const swaggerFile = "flightdesk.swagger.json"

type Handlers struct {
	Auth     *AuthHandler
	Flights  *FlightHandler
	Airports *AirportHandler
	Bookings *BookingHandler
	Users    *UserHandler
	SSE      *SSEHandler
}

// NewRouter mounts every route. Bookings and users require a bearer token.
func NewRouter(h Handlers, auth Authenticator, swaggerDir string, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		respond(c, http.StatusOK, "service is healthy", gin.H{"status": "ok"})
	})

	h.Auth.Register(r.Group("/auth"))
	h.Flights.Register(r.Group("/flights"))
	h.Airports.Register(r.Group("/airports"))
	h.SSE.Register(r.Group("/sse"))

	requireAuth := RequireAuth(auth, log)
	h.Bookings.Register(r.Group("/bookings", requireAuth))
	h.Users.Register(r.Group("/users", requireAuth))

	if swaggerDir != "" {
		r.Static("/swagger", swaggerDir)
		r.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/"+swaggerFile))))
	}
	return r
}
