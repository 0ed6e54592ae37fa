package bulk

import (
	"context"
	"errors"
	"net/http"

	"catalogsync/internal/catalog"
	"catalogsync/internal/importer"
)

// Item is one dispatch unit.
type Item struct {
	ExternalID string
	Kind       catalog.Kind
	Quality    string
}

// Outcome is what a single dispatch attempt produced. Permanent marks a
// failure no retry can clear, whatever its status code.
type Outcome struct {
	StatusCode int
	Result     *importer.Result
	Message    string
	Detail     string
	Err        error
	Permanent  bool
}

// Class drives the retry loop.
type Class int

const (
	ClassSuccess Class = iota
	ClassTransient
	ClassPermanent
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassTransient:
		return "transient"
	default:
		return "permanent"
	}
}

// Classify maps an attempt onto success, transient or permanent. timedOut
// reports that the attempt's own deadline expired.
func Classify(out Outcome, timedOut bool) Class {
	if out.StatusCode == http.StatusOK && out.Err == nil && out.Result != nil && out.Result.Success {
		return ClassSuccess
	}
	if timedOut || errors.Is(out.Err, context.DeadlineExceeded) {
		return ClassTransient
	}
	if out.Permanent {
		return ClassPermanent
	}
	switch code := out.StatusCode; {
	case code == 0 && out.Err != nil:
		return ClassTransient
	case code >= 500,
		code == http.StatusTooManyRequests,
		code == http.StatusForbidden,
		code == http.StatusUnauthorized:
		return ClassTransient
	default:
		return ClassPermanent
	}
}
