package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every JSON body the API writes. Status mirrors the HTTP
// status so clients reading only the body see the same outcome.
type Envelope struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// DataResponse writes data inside an Envelope using statusCode for both.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, Envelope{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes the field errors from ReadAndValidateRequest.
func BadRequestResponse(c echo.Context, fieldErrs interface{}) error {
	return DataResponse(c, http.StatusBadRequest, fieldErrs)
}

// AppErrorResponse writes err with its own status when it is an *AppError.
// Anything else becomes an opaque 500 so internal details never leak.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}
