package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"healthcare-portal-api/internal/handler"
	"healthcare-portal-api/internal/scheduler"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

var httpStatus = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.FailedPrecondition: http.StatusUnprocessableEntity,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Unimplemented:      http.StatusNotImplemented,
}

// HTTPStatus is the response status for a service error.
func HTTPStatus(err error) int {
	if handler.ReasonOf(err) == string(scheduler.KindAlreadyFinalized) {
		return http.StatusConflict
	}
	if s, ok := httpStatus[status.Code(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func respondServiceError(c *gin.Context, err error) {
	st := status.Convert(err)
	msg := st.Message()
	if HTTPStatus(err) == http.StatusInternalServerError {
		msg = "internal server error"
	}
	respondError(c, HTTPStatus(err), handler.ReasonOf(err), msg)
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "BadRequest", "invalid request: "+err.Error())
		return false
	}
	return true
}
