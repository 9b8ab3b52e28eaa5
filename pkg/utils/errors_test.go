package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCategorizeError_NilError(t *testing.T) {
	result := CategorizeError(nil)
	if result != "None" {
		t.Errorf("CategorizeError(nil) = %q, want %q", result, "None")
	}
}

func TestCategorizeError_SentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"UnsupportedReference", ErrUnsupportedReference, "Reference_Unsupported"},
		{"PayloadDecode", ErrPayloadDecode, "Reference_PayloadDecode"},
		{"ImageDecode", ErrImageDecode, "Image_Decode"},
		{"ImageEncode", ErrImageEncode, "Image_Encode"},
		{"ServerHTTPError", ErrServerHTTPError, "HTTP_5xx"},
		{"OtherHTTPError", ErrOtherHTTPError, "HTTP_OtherStatus"},
		{"Filesystem", ErrFilesystem, "Filesystem_Other"},
		{"RequestCreation", ErrRequestCreation, "Internal_RequestCreation"},
		{"MissingColumn", ErrMissingColumn, "Table_MissingColumn"},
		{"ConfigValidation", ErrConfigValidation, "Config_Validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_ClientHTTPCodes(t *testing.T) {
	err := fmt.Errorf("%w: status 404 404 Not Found", ErrClientHTTPError)
	if got := CategorizeError(err); got != "HTTP_404" {
		t.Errorf("CategorizeError = %q, want HTTP_404", got)
	}
}

func TestCategorizeError_RetryFailedWrapping(t *testing.T) {
	inner := fmt.Errorf("%w: status 503 503 Service Unavailable", ErrServerHTTPError)
	err := fmt.Errorf("%w: %w", ErrRetryFailed, inner)
	if got := CategorizeError(err); got != "RetryFailed_HTTPServer" {
		t.Errorf("CategorizeError = %q, want RetryFailed_HTTPServer", got)
	}
}

func TestCategorizeError_ContextErrors(t *testing.T) {
	if got := CategorizeError(context.Canceled); got != "System_ContextCanceled" {
		t.Errorf("CategorizeError = %q, want System_ContextCanceled", got)
	}
	if got := CategorizeError(context.DeadlineExceeded); got != "System_ContextDeadlineExceeded" {
		t.Errorf("CategorizeError = %q, want System_ContextDeadlineExceeded", got)
	}
}

func TestWrapErrorf(t *testing.T) {
	err := WrapErrorf(ErrConfigValidation, "field %q is bad", "retries")
	if !errors.Is(err, ErrConfigValidation) {
		t.Errorf("wrapped error does not match sentinel: %v", err)
	}
}
