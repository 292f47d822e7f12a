package outlook

import (
	"errors"
	"fmt"
	"net/http"
)

// Error categories. Every error returned by this package wraps exactly one
// of these, so callers can classify failures with errors.Is.
var (
	// ErrConfiguration indicates a required credential or mailbox identity
	// was neither supplied with the call nor cached from an earlier one.
	ErrConfiguration = errors.New("outlook: configuration error")

	// ErrValidation indicates a caller-supplied parameter is out of range
	// or not a member of its enumeration. Raised before any network I/O.
	ErrValidation = errors.New("outlook: validation error")

	// ErrTransport indicates the request could not be built, sent, or its
	// response decoded, or the service answered with a non-success status.
	ErrTransport = errors.New("outlook: transport error")
)

// Configuration errors.
var (
	// ErrCredentialsNotSet indicates no credential is available for the call.
	ErrCredentialsNotSet = fmt.Errorf("%w: credentials not set", ErrConfiguration)

	// ErrUserNotSet indicates no mailbox identity is available for the call.
	ErrUserNotSet = fmt.Errorf("%w: user not set", ErrConfiguration)
)

// Transport errors for Outlook REST API responses.
var (
	// ErrUnauthorised indicates the credential is invalid or expired.
	ErrUnauthorised = fmt.Errorf("%w: unauthorised", ErrTransport)

	// ErrForbidden indicates the caller lacks permission for the mailbox.
	ErrForbidden = fmt.Errorf("%w: forbidden", ErrTransport)

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", ErrTransport)

	// ErrRateLimited indicates the request was throttled by the service.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrTransport)

	// ErrBadRequest indicates the service rejected the request as malformed.
	ErrBadRequest = fmt.Errorf("%w: bad request", ErrTransport)

	// ErrServerError indicates a server-side error from Exchange Online.
	ErrServerError = fmt.Errorf("%w: server error", ErrTransport)
)

// WrapError converts an HTTP status code to an appropriate error.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// IsConfiguration checks if the error is a missing-credential or
// missing-mailbox failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsValidation checks if the error is a parameter validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransport checks if the error originated from the request or response.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsUnauthorised checks if the error indicates an authentication failure.
func IsUnauthorised(err error) bool {
	return errors.Is(err, ErrUnauthorised)
}

// IsNotFound checks if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited checks if the error indicates service throttling.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
