package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"catalogsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "omdb", "fetch title", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"omdb", "fetch title", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransientMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", services.Wrap(services.ErrValidation, "importer", "validate", "missing id", nil), http.StatusBadRequest},
		{"not found", services.Wrap(services.ErrNotFound, "omdb", "fetch", "no match", nil), http.StatusNotFound},
		{"conflict", services.Wrap(services.ErrConflict, "store", "insert", "dup", nil), http.StatusConflict},
		{"transient", services.Wrap(services.ErrTransient, "omdb", "fetch", "502", nil), http.StatusServiceUnavailable},
		{"deadline", fmt.Errorf("import: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"permanent", services.Wrap(services.ErrPermanent, "omdb", "fetch", "bad key", nil), http.StatusUnprocessableEntity},
		{"transient wins over permanent", fmt.Errorf("%w: %w", services.ErrTransient, services.ErrPermanent), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if services.IsRetryable(nil) {
		t.Fatal("nil should not be retryable")
	}
	if !services.IsRetryable(services.Wrap(services.ErrTransient, "omdb", "fetch", "503", nil)) {
		t.Fatal("transient should be retryable")
	}
	if services.IsRetryable(services.Wrap(services.ErrNotFound, "omdb", "fetch", "missing", nil)) {
		t.Fatal("not found should not be retryable")
	}
}
