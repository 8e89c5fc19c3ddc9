// Package fetch wraps outbound HTTP calls to third-party game APIs and
// classifies their failures so collectors can decide what to skip.
package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

type ErrorKind int

const (
	// ErrNetwork covers transport failures: DNS, connect, timeout.
	ErrNetwork ErrorKind = iota
	// ErrStatus means the endpoint answered with a non-2xx status.
	ErrStatus
	// ErrDecode means the body was not the JSON shape we expected.
	ErrDecode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrStatus:
		return "status"
	case ErrDecode:
		return "decode"
	}
	return "unknown"
}

// Error is the failure type for all upstream API calls.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == ErrStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// RateLimited reports whether the upstream told us to slow down.
func (e *Error) RateLimited() bool {
	return e.Kind == ErrStatus && e.StatusCode == http.StatusTooManyRequests
}

// GetJSON issues a GET and decodes the JSON response into out.
func GetJSON(client *resty.Client, url string, params map[string]string, headers map[string]string, out interface{}) error {
	req := client.R()
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return &Error{Kind: ErrNetwork, URL: url, Err: err}
	}
	if resp.IsError() {
		return &Error{Kind: ErrStatus, URL: url, StatusCode: resp.StatusCode()}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &Error{Kind: ErrDecode, URL: url, Err: err}
	}
	return nil
}

// PostForm issues a form-encoded POST and decodes the JSON response into out.
func PostForm(client *resty.Client, url string, form map[string]string, headers map[string]string, out interface{}) error {
	req := client.R().SetFormData(form)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Post(url)
	if err != nil {
		return &Error{Kind: ErrNetwork, URL: url, Err: err}
	}
	if resp.IsError() {
		return &Error{Kind: ErrStatus, URL: url, StatusCode: resp.StatusCode()}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &Error{Kind: ErrDecode, URL: url, Err: err}
	}
	return nil
}
