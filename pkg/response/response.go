package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Josephquito/back-streaming/pkg/apperr"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// Business error codes.
const (
	CodeValidationFailed  = 1001
	CodeConflict          = 1002
	CodeInsufficientStock = 1003
	CodeIneligibleDonor   = 1004
	CodeCapacityReached   = 1005
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}

// ErrorFrom maps a kinded business error to the HTTP envelope. Anything
// without a kind is treated as an internal failure.
func ErrorFrom(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		Error(c, http.StatusBadRequest, CodeValidationFailed, err.Error())
	case apperr.KindNotFound:
		Error(c, http.StatusNotFound, CodeNotFound, err.Error())
	case apperr.KindConflict:
		Error(c, http.StatusConflict, CodeConflict, err.Error())
	case apperr.KindForbidden:
		Error(c, http.StatusForbidden, CodeForbidden, err.Error())
	case apperr.KindUnauthorized:
		Error(c, http.StatusUnauthorized, CodeUnauthorized, err.Error())
	default:
		ServerError(c, err.Error())
	}
}
