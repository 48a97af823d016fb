package parcel

import (
	"encoding/json"
	"fmt"
)

// ErrorCode identifies why a scrape produced no parcel. The ids are part of
// the wire payload and must stay stable.
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota
	ErrInvalidTrackingCode
	ErrParcelNotFound
	ErrRateLimiting
	ErrBlocked
	ErrProxyTimeout
	ErrBrowserError
)

var errorCodeNames = map[ErrorCode]string{
	ErrUnknown:             "Unknown",
	ErrInvalidTrackingCode: "InvalidTrackingCode",
	ErrParcelNotFound:      "ParcelNotFound",
	ErrRateLimiting:        "RateLimiting",
	ErrBlocked:             "Blocked",
	ErrProxyTimeout:        "ProxyTimeout",
	ErrBrowserError:        "BrowserError",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Error is the terminal result of a scrape that could not produce a Parcel.
type Error struct {
	Code ErrorCode
	Data any
}

// NewError builds a scrape error. Data is free-form context for the caller
// (matched banner text, selector, HTTP detail) and may be nil.
func NewError(code ErrorCode, data any) *Error {
	return &Error{Code: code, Data: data}
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("scraping failed: %s (%v)", e.Code, e.Data)
	}
	return fmt.Sprintf("scraping failed: %s", e.Code)
}

func (e *Error) MarshalJSON() ([]byte, error) {
	type code struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	type inner struct {
		Code code `json:"code"`
		Data any  `json:"data"`
	}
	type payload struct {
		Error inner `json:"error"`
	}
	return json.Marshal(payload{Error: inner{
		Code: code{ID: int(e.Code), Name: e.Code.String()},
		Data: e.Data,
	}})
}
