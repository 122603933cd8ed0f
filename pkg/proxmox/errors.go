package proxmox

import (
	"fmt"
	"strings"
)

// AuthError reports a failed connection handshake: the probe request could
// not reach the host or the credentials were rejected.
type AuthError struct {
	Host string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication with %s failed: %v", e.Host, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError reports a failed API request. StatusCode is zero when the
// request never completed (transport failure).
type RequestError struct {
	Host       string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request %s on %s failed with status %d: %v", e.Endpoint, e.Host, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request %s on %s failed: %v", e.Endpoint, e.Host, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NotFoundError reports that a named lookup matched nothing. It is distinct
// from RequestError: the request itself succeeded.
type NotFoundError struct {
	Host     string
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found on %s", e.Resource, e.Name, e.Host)
}

// ValidationError reports a parameter outside its permitted set. It is
// raised before any network request is made.
type ValidationError struct {
	Param   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Param, e.Value, strings.Join(e.Allowed, ", "))
}

func oneOf(value string, allowed []string) bool {
	for _, v := range allowed {
		if value == v {
			return true
		}
	}
	return false
}
