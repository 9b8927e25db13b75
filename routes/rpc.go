package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"quick-jot/quickjot/services"
)

const maxInputBytes = 4 << 20

// procedure is one typed RPC handler. userID is uuid.Nil for public
// procedures.
type procedure[In, Out any] func(c *gin.Context, userID uuid.UUID, in In) (Out, error)

// registerQuery serves fn on GET, with input JSON in the "input" query
// parameter, and on POST with a JSON body.
func registerQuery[In, Out any](group *gin.RouterGroup, name string, fn procedure[In, Out]) {
	handler := handle(fn)
	group.GET("/"+name, handler)
	group.POST("/"+name, handler)
}

func registerMutation[In, Out any](group *gin.RouterGroup, name string, fn procedure[In, Out]) {
	group.POST("/"+name, handle(fn))
}

func handle[In, Out any](fn procedure[In, Out]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in In
		if err := decodeInput(c, &in); err != nil {
			writeError(c, err)
			return
		}

		out, err := fn(c, currentUserID(c), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func decodeInput(c *gin.Context, dst interface{}) error {
	var raw []byte
	if c.Request.Method == http.MethodGet {
		raw = []byte(c.Query("input"))
	} else if c.Request.Body != nil {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInputBytes))
		if err != nil {
			return services.InvalidInput("Unable to read request body")
		}
		raw = body
	}

	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return services.InvalidInput("Invalid JSON input")
		}
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return services.InvalidInput(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "Invalid input"
	}
	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func currentUserID(c *gin.Context) uuid.UUID {
	if value, ok := c.Get("userID"); ok {
		if id, ok := value.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

var statusByKind = map[services.ErrorKind]int{
	services.KindNotFound:     http.StatusNotFound,
	services.KindBadRequest:   http.StatusBadRequest,
	services.KindForbidden:    http.StatusForbidden,
	services.KindUnauthorized: http.StatusUnauthorized,
	services.KindConflict:     http.StatusConflict,
	services.KindInternal:     http.StatusInternalServerError,
}

type errorBody struct {
	Code    services.ErrorKind `json:"code"`
	Message string             `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		// Picked up by the request logger.
		c.Error(err)
	}
	c.AbortWithStatusJSON(statusByKind[kind], errorResponse{
		Error: errorBody{Code: kind, Message: services.MessageOf(err)},
	})
}

type idInput struct {
	ID string `json:"id" binding:"required"`
}

type successResponse struct {
	Success bool `json:"success"`
}
