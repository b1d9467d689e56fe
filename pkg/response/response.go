package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
	Details    []any  `json:"details,omitempty"`
	Data       any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Empty Request Body",
	Message:    "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Bad Request",
	Message:    "Request body is malformed. Please check your input.",
}

var InvalidURLResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Invalid URL",
	Message:    "Invalid URL provided",
}

var ResourceNotFoundResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusNotFound,
	Error:      "Resource Not Found",
	Message:    "The requested resource was not found.",
}

var URLExpiredResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusGone,
	Error:      "URL Expired",
	Message:    "This short link has expired.",
}

var RateLimitedResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusTooManyRequests,
	Error:      "Rate Limit Exceeded",
	Message:    "Too many requests from this address. Please try again later.",
}

var ServerErrorResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusInternalServerError,
	Error:      "Server Error",
	Message:    "An internal server error occurred. Please try again later.",
}

var BadGatewayResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadGateway,
	Error:      "Upstream Error",
	Message:    "The upstream service could not be reached. Please try again later.",
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:     StatusSuccess,
		StatusCode: http.StatusOK,
		Message:    msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ValidationErrorResponse shapes validator errors into a 400 envelope with
// one human-readable detail per failed field.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:     StatusError,
		StatusCode: http.StatusBadRequest,
		Error:      "Validation Error",
		Message:    "Request validation failed.",
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			var detail string

			switch vErr.Tag() {
			case "required":
				detail = fmt.Sprintf("%s is a required field", vErr.Field())
			case "min":
				detail = fmt.Sprintf("%s must be at least %s", vErr.Field(), vErr.Param())
			case "max":
				detail = fmt.Sprintf("%s must be at most %s", vErr.Field(), vErr.Param())
			default:
				detail = fmt.Sprintf("%s is invalid", vErr.Field())
			}

			resp.Details = append(resp.Details, detail)
		}
	}

	return resp
}
