// Package errors provides the coded error type used across btcx, together with
// helpers for categorizing errors and carrying them across gRPC.
package errors

import (
	"context"
	"errors"
	"strings"
)

// IsRetryableError determines if an error is transient and the operation should be retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NETWORK_TIMEOUT,
			ERR_NETWORK_ERROR,
			ERR_SERVICE_UNAVAILABLE,
			ERR_STORAGE_UNAVAILABLE,
			ERR_NETWORK_CONNECTION_REFUSED:
			return true
		}
	}

	return false
}

// IsNetworkError determines if an error is network-related.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NETWORK_ERROR,
			ERR_NETWORK_TIMEOUT,
			ERR_NETWORK_CONNECTION_REFUSED,
			ERR_NETWORK_INVALID_RESPONSE:
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	networkStrings := []string{
		"network",
		"connection",
		"timeout",
		"dial tcp",
		"no such host",
		"connection refused",
		"connection reset",
		"broken pipe",
	}

	for _, s := range networkStrings {
		if strings.Contains(errStr, s) {
			return true
		}
	}

	return false
}

// IsHeaderRejectionCode reports whether code is one of the header verification failures.
func IsHeaderRejectionCode(code ERR) bool {
	return code >= ERR_INVALID_TARGET && code <= ERR_INVALID_HEADERS_INPUT
}

// IsHeaderRejection reports whether err rejects a header sequence on its merits,
// as opposed to failing for an infrastructure reason.
func IsHeaderRejection(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		for e := tErr; e != nil; {
			if IsHeaderRejectionCode(e.Code()) {
				return true
			}

			next, ok := e.wrappedErr.(*Error)
			if !ok {
				break
			}

			e = next
		}
	}

	return false
}

// IsChainStateError reports whether err was raised by the chain-state store checks.
func IsChainStateError(err error) bool {
	var tErr *Error
	if As(err, &tErr) {
		code := tErr.Code()
		return code >= ERR_UNKNOWN_PARENT && code <= 29
	}

	return false
}

// IsTemporaryError determines if an error is temporary and might succeed if retried later.
func IsTemporaryError(err error) bool {
	if err == nil {
		return false
	}

	type temporary interface {
		Temporary() bool
	}

	if te, ok := err.(temporary); ok {
		return te.Temporary()
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_SERVICE_UNAVAILABLE,
			ERR_STORAGE_UNAVAILABLE:
			return true
		}
	}

	return false
}

// IsContextError determines if an error is related to context cancellation or deadline.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	if err == context.Canceled || err == context.DeadlineExceeded {
		return true
	}

	var tErr *Error
	if As(err, &tErr) {
		if tErr.Code() == ERR_CONTEXT_CANCELED || tErr.Code() == ERR_CONTEXT {
			return true
		}
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// GetErrorCategory returns a short label for err, used as a metrics label.
func GetErrorCategory(err error) string {
	if err == nil {
		return "none"
	}

	if IsContextError(err) {
		return "context"
	}

	var tErr *Error
	if As(err, &tErr) {
		code := tErr.Code()
		switch {
		case code >= 10 && code <= 19:
			return "header"
		case code >= 20 && code <= 29:
			return "chain"
		case code >= 50 && code <= 59:
			return "service"
		case code >= 60 && code <= 69:
			return "storage"
		case code >= 80 && code <= 89:
			return "kafka"
		case code >= 100 && code <= 109:
			return "state"
		case code >= 110 && code <= 119:
			return "network"
		}
	}

	if IsNetworkError(err) {
		return "network"
	}

	if IsTemporaryError(err) {
		return "temporary"
	}

	return "unknown"
}
