package bizerror

import (
	"errors"
	"net/http"
)

var ErrUnauthenticated = errors.New("unauthenticated")
var ErrForbidden = errors.New("forbidden")
var ErrNotFound = errors.New("not found")
var ErrInvalidPassword = errors.New("invalid password")
var ErrEmailExisted = errors.New("email existed")
var ErrTooManyRequests = errors.New("too many requests")

var ErrAppIsReferenced = errors.New("app is referenced by records")

var ErrProcessDisabled = errors.New("process management is disabled")
var ErrUnknownAction = errors.New("action is not allowed from current status")
var ErrUnknownStatus = errors.New("target status is not defined in process settings")
var ErrProcessInvalid = errors.New("process settings are invalid")
var ErrAssigneeRequired = errors.New("next assignee is required for single-select status")
var ErrAssigneeNotCandidate = errors.New("next assignee is not in candidate assignees")

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}
