package omdb

import (
	"fmt"
	"net/http"
	"strings"

	"catalogsync/internal/services"
)

// ProviderError describes a failed provider call. Kind is one of the services
// markers, so errors.Is(err, services.ErrNotFound) works through it.
type ProviderError struct {
	Operation string
	Status    int
	Message   string
	Kind      error
	Err       error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString("omdb ")
	b.WriteString(e.Operation)
	if e.Status > 0 {
		fmt.Fprintf(&b, " returned %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Retryable reports whether the failure is worth retrying.
func (e *ProviderError) Retryable() bool {
	return e.Kind == services.ErrTransient
}

// classifyStatus maps a non-200 HTTP status to an error marker.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusTooManyRequests, status >= 500:
		return services.ErrTransient
	default:
		return services.ErrPermanent
	}
}

// classifyMessage maps the provider "Error" text of a Response=False payload.
func classifyMessage(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not found"), strings.Contains(lower, "incorrect imdb id"):
		return services.ErrNotFound
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return services.ErrTransient
	default:
		return services.ErrPermanent
	}
}
