package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

var statusByKind = map[errs.Kind]int{
	errs.KindValidation:   http.StatusBadRequest,
	errs.KindNotFound:     http.StatusNotFound,
	errs.KindConflict:     http.StatusConflict,
	errs.KindUnauthorized: http.StatusUnauthorized,
	errs.KindInternal:     http.StatusInternalServerError,
}

// respondError writes err as an error envelope. Internal errors are logged and masked.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := errs.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if kind == errs.KindInternal {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: errs.Message(err), Error: string(kind)})
}

// bindError turns a gin binding failure into a validation error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errs.Validation("field %s failed on the %q rule", fe.Field(), fe.Tag())
	}
	return errs.Validation("invalid request body")
}
