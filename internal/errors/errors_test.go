package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsType_Wrapped(t *testing.T) {
	err := fmt.Errorf("channel 1: %w", NewDimensionMismatchError("shapes differ", nil))

	if !IsType(err, ErrorTypeDimensionMismatch) {
		t.Error("Expected wrapped error to match its type")
	}
	if IsType(err, ErrorTypeInvalidInput) {
		t.Error("Expected type mismatch")
	}
	if IsType(errors.New("plain"), ErrorTypeInternal) {
		t.Error("Plain errors have no type")
	}
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewInvalidParameterError("rank", nil), http.StatusBadRequest},
		{NewDimensionMismatchError("dims", nil), http.StatusUnprocessableEntity},
		{NewInvalidInputError("empty", nil), http.StatusUnprocessableEntity},
		{NewNetworkError("fetch", nil), http.StatusBadGateway},
		{NewTimeoutError("slow", nil), http.StatusGatewayTimeout},
		{NewNotFoundError("gone", nil), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := GetStatusCode(tt.err); got != tt.want {
			t.Errorf("GetStatusCode(%v) = %d, expected %d", tt.err, got, tt.want)
		}
	}
}

func TestAppError_WithDetails(t *testing.T) {
	base := NewInvalidParameterError("rank out of range", nil)
	detailed := base.WithDetails("rank %d, max %d", 9, 7)

	if base.Details != "" {
		t.Error("WithDetails must not modify the receiver")
	}
	if detailed.Error() != "invalid_parameter: rank out of range (rank 9, max 7)" {
		t.Errorf("Unexpected message %q", detailed.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError("fetch failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
	if err.Error() != "network: fetch failed (caused by: connection reset)" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}
