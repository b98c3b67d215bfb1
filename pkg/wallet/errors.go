package wallet

import (
	"errors"
	"fmt"
	"net/http"
)

// notEligibleMessage is the exact business condition reported by the faucet
// when the account is still inside its claim cooldown.
const notEligibleMessage = "Not eligible."

// APIError is a non-success response from the wallet service. A 2xx response
// whose payload is semantically unrecognized is also represented as an
// APIError so that it counts as a failed attempt.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("wallet api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("wallet api: status %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is a credential-expiry rejection.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsNotEligible reports whether err is the faucet's cooldown condition. This
// is a server-reported business state, not a transport fault.
func IsNotEligible(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message == notEligibleMessage
	}
	return false
}
