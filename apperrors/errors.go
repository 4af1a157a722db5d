// Package apperrors defines the error taxonomy shared by services and
// controllers. Services return the sentinels below (optionally wrapped with a
// cause); controllers translate them to HTTP responses with Kind.HTTPStatus.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the request boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
	KindForbidden
	KindState
	KindUpstream
)

// HTTPStatus returns the status code a Kind is reported with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Message is safe to show to the
// caller; Err carries the internal cause and is never rendered.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so wrapped copies of a sentinel
// still satisfy errors.Is(err, sentinel).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the explicit status override or the Kind's default.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.HTTPStatus()
}

// New creates a sentinel.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of sentinel with a more specific message.
func WithMessage(sentinel *Error, message string) *Error {
	cp := *sentinel
	cp.Message = message
	return &cp
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Validation and lookup.
var (
	ErrValidation = New(KindValidation, "validation", "Invalid input")
	ErrInvalidID  = New(KindValidation, "invalid_id", "Invalid id")
	ErrNotFound   = New(KindNotFound, "not_found", "Not found")
)

// Identity store.
var (
	ErrIdentityNotFound  = New(KindNotFound, "identity_not_found", "Record not found")
	ErrDuplicateIdentity = New(KindConflict, "duplicate_identity", "A record with this id or email already exists")
	ErrAlreadyActivated  = New(KindConflict, "already_activated", "Already activated")
	ErrAccountExists     = New(KindConflict, "account_exists", "Account already exists")
	ErrAccountNotFound   = New(KindNotFound, "account_not_found", "User not found")
)

// OTP verifier.
var (
	ErrInvalidOrExpiredOTP = New(KindValidation, "otp_invalid_or_expired", "Invalid or expired OTP")
)

// Auth gateway.
var (
	ErrUnauthorized        = New(KindAuth, "unauthorized", "Invalid or expired token")
	ErrForbidden           = New(KindForbidden, "forbidden", "Access denied")
	ErrInvalidAccount      = New(KindAuth, "invalid_account", "Invalid account")
	ErrInvalidCredentials  = New(KindAuth, "invalid_credentials", "Invalid credentials")
	ErrAmbiguousIdentifier = New(KindValidation, "ambiguous_identifier", "Identifier matches more than one account, use your registration number or technician id")
	ErrAccountDisabled     = &Error{Kind: KindAuth, Code: "account_disabled", Message: "Account disabled", Status: http.StatusForbidden}
)

// Complaint lifecycle.
var (
	ErrComplaintNotFound   = New(KindNotFound, "complaint_not_found", "Complaint not found")
	ErrIllegalStatusChange = New(KindState, "illegal_status_change", "Illegal status change")
	ErrTechnicianNotValid  = New(KindForbidden, "technician_not_valid", "Technician not valid")
	ErrNotOwner            = New(KindForbidden, "not_owner", "Unauthorized")
	ErrNotResolved         = New(KindState, "not_resolved", "Complaint not resolved yet")
	ErrAlreadyProcessed    = New(KindState, "already_processed", "Already processed")
	ErrNotCompleted        = New(KindState, "not_completed", "Not completed yet")
	ErrAlreadyRated        = New(KindConflict, "already_rated", "Already rated")
	ErrInvalidRating       = New(KindValidation, "invalid_rating", "Invalid rating")
	ErrNotRagging          = New(KindState, "not_ragging", "Not a ragging complaint")
	ErrInvariant           = New(KindState, "invariant_violation", "Complaint state is invalid")
	ErrConcurrentUpdate    = New(KindConflict, "concurrent_update", "Complaint was modified concurrently, reload and retry")
)

// Feed and board.
var (
	ErrNotificationNotFound = New(KindNotFound, "notification_not_found", "Notification not found")
	ErrNoticeNotFound       = New(KindNotFound, "notice_not_found", "Notice not found")
)

// Collaborators.
var (
	ErrMailDispatch = New(KindUpstream, "mail_dispatch", "Could not send the verification email, please retry")
	ErrUpload       = New(KindValidation, "upload", "Image upload failed")
	ErrRateLimited  = &Error{Kind: KindValidation, Code: "rate_limited", Message: "rate limit exceeded", Status: http.StatusTooManyRequests}
)
