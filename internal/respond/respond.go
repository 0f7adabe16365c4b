// Package respond is the single construction point for the API response
// envelope. Every handler goes through Success or Error so the envelope
// invariant (status=false always carries an error object, status=true never
// does) cannot be violated at a call site.
package respond

import (
	"net/http"
	"reflect"

	echo "github.com/labstack/echo/v4"
)

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Status  bool         `json:"status"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// Build assembles the envelope and the transport status code. A transport code
// outside the valid HTTP range (>= 600) falls back to 400. When status is
// false the error code defaults to the transport code unless errorCode is set.
func Build(status bool, message string, data any, httpCode, errorCode int) (int, Envelope) {
	env := Envelope{Status: status}

	if status {
		env.Message = message
	} else {
		code := errorCode
		if code == 0 {
			code = httpCode
		}
		env.Error = &ErrorObject{Code: code, Message: message}
	}

	if hasData(data) {
		env.Data = data
	}

	if httpCode >= 600 {
		httpCode = http.StatusBadRequest
	}

	return httpCode, env
}

// hasData treats empty collections like nil: an empty customer list marshals
// to no data key at all, not to "data": [].
func hasData(data any) bool {
	if data == nil {
		return false
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return v.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !v.IsNil()
	}
	return true
}

// Success writes a status=true envelope. Pass nil data to omit the data key.
func Success(c echo.Context, data any, message string, httpCode int) error {
	code, env := Build(true, message, data, httpCode, 0)
	return c.JSON(code, env)
}

// Error writes a status=false envelope. errorCode 0 means "use httpCode".
func Error(c echo.Context, message string, httpCode, errorCode int) error {
	code, env := Build(false, message, nil, httpCode, errorCode)
	return c.JSON(code, env)
}
