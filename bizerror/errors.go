package bizerror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("record not found")
	ErrInvalidPassword = errors.New("invalid password")

	ErrLaunchNotPending     = errors.New("launch is not pending review")
	ErrLaunchNotRejected    = errors.New("launch is not rejected")
	ErrLaunchNotOpen        = errors.New("launch is not open")
	ErrReasonRequired       = errors.New("rejection reason is required")
	ErrProposalStateInvalid = errors.New("proposal state is invalid")
	ErrFeatureDisabled      = errors.New("feature is disabled")
	ErrNotParticipant       = errors.New("not a conversation participant")
)

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

// ErrUploadFailed reports a failed object storage interaction during launch
// submission. Staged objects are already discarded when it is raised.
type ErrUploadFailed struct {
	Cause error
}

func (e *ErrUploadFailed) Unwrap() error {
	return e.Cause
}
func (e *ErrUploadFailed) Error() string {
	if e.Cause != nil {
		return "upload failed: " + e.Cause.Error()
	}
	return "upload failed"
}
func (e *ErrUploadFailed) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadGateway, Code: "assets.upload_failed", Message: e.Error(), Data: nil}
}
