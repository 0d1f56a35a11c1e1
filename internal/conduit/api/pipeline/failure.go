package pipeline

import (
	"fmt"
	"net/http"
)

// Failure is a typed request failure. Any phase may return one to skip the
// remaining phases and respond with Status and Errors.
type Failure struct {
	Status int
	Errors any
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%d %s: %v", f.Status, http.StatusText(f.Status), f.Errors)
}

func Fail(status int, errs any) *Failure {
	return &Failure{
		Status: status,
		Errors: errs,
	}
}

func BadRequest(errs any) *Failure {
	return Fail(http.StatusBadRequest, errs)
}

func Unauthorized(errs any) *Failure {
	return Fail(http.StatusUnauthorized, errs)
}

func Forbidden(errs any) *Failure {
	return Fail(http.StatusForbidden, errs)
}

func NotFound(errs any) *Failure {
	return Fail(http.StatusNotFound, errs)
}

func Conflict(errs any) *Failure {
	return Fail(http.StatusConflict, errs)
}

func Unprocessable(errs any) *Failure {
	return Fail(http.StatusUnprocessableEntity, errs)
}

// Message builds the common {"field": ["message", ...]} error payload.
func Message(field string, msgs ...string) map[string][]string {
	return map[string][]string{field: msgs}
}
