package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrRetryFailed          = errors.New("request failed after all attempts") // Wraps the last underlying error
	ErrClientHTTPError      = errors.New("client HTTP error (4xx)")           // Wraps original error/status
	ErrServerHTTPError      = errors.New("server HTTP error (5xx)")           // Wraps original error/status
	ErrOtherHTTPError       = errors.New("other HTTP error (non-2xx)")        // Wraps original error/status
	ErrRequestCreation      = errors.New("failed to create HTTP request")
	ErrUnsupportedReference = errors.New("unsupported image reference")
	ErrPayloadDecode        = errors.New("inline payload decode error")
	ErrImageDecode          = errors.New("image decode error") // Unrecognized or corrupt image data
	ErrImageEncode          = errors.New("image encode error") // Re-encoding to the target format failed
	ErrFilesystem           = errors.New("filesystem error")   // Wraps os errors
	ErrMissingColumn        = errors.New("required column missing")
	ErrConfigValidation     = errors.New("configuration validation error")
)

// WrapErrorf wraps a sentinel error with a formatted message.
func WrapErrorf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	// Check against sentinel errors first
	switch {
	case errors.Is(err, ErrRetryFailed):
		switch {
		case errors.Is(err, ErrServerHTTPError):
			return "RetryFailed_HTTPServer"
		case errors.Is(err, ErrClientHTTPError):
			return "RetryFailed_HTTPClient"
		case errors.Is(err, ErrOtherHTTPError):
			return "RetryFailed_HTTPOther"
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "RetryFailed_NetworkTimeout"
		}
		// Fall back to common network error substrings
		errMsg := err.Error()
		if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "Timeout") || strings.Contains(errMsg, "deadline exceeded") {
			return "RetryFailed_NetworkTimeout"
		}
		if strings.Contains(errMsg, "connection refused") {
			return "RetryFailed_ConnectionRefused"
		}
		if strings.Contains(errMsg, "no such host") {
			return "RetryFailed_DNSLookup"
		}
		var retryNetErr net.Error
		if errors.As(err, &retryNetErr) && retryNetErr.Timeout() {
			return "RetryFailed_NetworkTimeout"
		}
		if errors.Unwrap(err) == nil && err.Error() == ErrRetryFailed.Error() {
			return "RetryFailed_Unknown" // Bare sentinel, no underlying cause recorded
		}
		return "RetryFailed_NetworkOther" // Catch-all for other network errors after retry
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 401 ") {
			return "HTTP_401"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		return "HTTP_4xx" // Generic 4xx
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrUnsupportedReference):
		return "Reference_Unsupported"
	case errors.Is(err, ErrPayloadDecode):
		return "Reference_PayloadDecode"
	case errors.Is(err, ErrImageDecode):
		return "Image_Decode"
	case errors.Is(err, ErrImageEncode):
		return "Image_Encode"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrMissingColumn):
		return "Table_MissingColumn"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types/strings ---

	// Context errors
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	// Network errors (if not wrapped by custom sentinels)
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "Network_Timeout"
		}
	}
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "timeout") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate") {
		return "Network_TLS"
	}
	if strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}
	if strings.Contains(lowerErrMsg, "broken pipe") {
		return "Network_BrokenPipe"
	}

	return "Unknown"
}
