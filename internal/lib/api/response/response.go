package response

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	CodeOK    = 0
	CodeError = 1
)

const timeLayout = "2006-01-02 15:04:05"

// Response is the envelope every endpoint returns. The timestamp is
// appended to the message server-side, so clients can show when the
// server produced the reply without a separate field.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func Success(message string, data any) Response {
	if data == nil {
		data = struct{}{}
	}

	return Response{
		Code:    CodeOK,
		Message: stamp(message),
		Data:    data,
	}
}

func OK(message string) Response {
	return Success(message, nil)
}

func Error(message string) Response {
	return Response{
		Code:    CodeError,
		Message: stamp(message),
		Data:    struct{}{},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Error(strings.Join(errMsgs, ", "))
}

func stamp(message string) string {
	return message + ", " + time.Now().Format(timeLayout)
}
