package haihuishou

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by protected operations before any
// network call is made when the session is missing its token or
// userId.
var ErrNotAuthenticated = errors.New("not authenticated")

// TransportError is a non-2xx HTTP response. It is propagated as-is,
// never retried.
type TransportError struct {
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("haihuishou: http %s", e.Status)
}

// ProtocolError is a response body that could not be parsed as JSON
// where JSON was expected. The vendor returns non-JSON or empty bodies
// when the token is invalid or expired, so this most often means the
// operator needs to log in again.
type ProtocolError struct {
	Endpoint string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("haihuishou: %s returned non-JSON (token missing or expired?): %v", e.Endpoint, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// RemoteRejection is an explicit vendor failure code, with the
// vendor's message preserved verbatim for the operator.
type RemoteRejection struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *RemoteRejection) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("haihuishou: %s rejected with code %d", e.Endpoint, e.Code)
}

// QuotationRejectedError means the vendor refused a quotation
// submission.
type QuotationRejectedError struct {
	Message string
}

func (e *QuotationRejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "haihuishou: quotation rejected"
}

// QuotationUpdateRejectedError means a quotation revision failed: the
// outer envelope succeeded but the inner subCode did not, or the outer
// envelope itself failed.
type QuotationUpdateRejectedError struct {
	SubCode int
	Message string
}

func (e *QuotationUpdateRejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("haihuishou: quotation update rejected with subCode %d", e.SubCode)
}
