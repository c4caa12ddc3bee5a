package search

import (
	"errors"
	"fmt"

	"github.com/lepinkainen/biblio/internal/fetch"
)

// User-facing error messages, classified independently of controller state.
const (
	msgNetwork = "There is a problem with your internet connection. Please check it and try again."
	msgTimeout = "The request timed out. Please try again in a moment."
	msgBadReq  = "Invalid search query. Please check your input."
	msgQuota   = "The catalog API limit was reached. Please try again later."
	msgMissing = "The requested resource was not found."
	msgThrottl = "Too many requests. Please wait a moment and try again."
	msgServer  = "Something went wrong on the server side. Please try again."
	msgGeneric = "Something went wrong during the search."
)

// userFacingError maps a classified gateway failure to one of the fixed
// user-facing categories. Cancellation never reaches this function.
func userFacingError(err error) string {
	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Status == 400:
			return msgBadReq
		case httpErr.Status == 403:
			return msgQuota
		case httpErr.Status == 404:
			return msgMissing
		case httpErr.Status == 429:
			return msgThrottl
		case httpErr.Status >= 500:
			return msgServer
		case httpErr.Status >= 400:
			return fmt.Sprintf("The request failed (HTTP %d).", httpErr.Status)
		}
	}

	var netErr *fetch.NetworkError
	if errors.As(err, &netErr) {
		return msgNetwork
	}
	var toErr *fetch.TimeoutError
	if errors.As(err, &toErr) {
		return msgTimeout
	}

	return msgGeneric
}
