package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"catalogsync/internal/auth"
	"catalogsync/internal/importer"
	"catalogsync/internal/omdb"
	"catalogsync/internal/services"
)

// Dispatcher runs one import attempt for an item.
type Dispatcher interface {
	Dispatch(ctx context.Context, item Item) Outcome
}

// InProcessDispatcher calls the importer directly. The caller's principal
// travels in ctx.
type InProcessDispatcher struct {
	Importer importer.Importer
}

// Dispatch implements Dispatcher.
func (d InProcessDispatcher) Dispatch(ctx context.Context, item Item) Outcome {
	result, err := d.Importer.Import(ctx, item.ExternalID, item.Quality)
	if err != nil {
		out := Outcome{
			StatusCode: services.HTTPStatus(err),
			Message:    err.Error(),
			Err:        err,
			Permanent:  errors.Is(err, services.ErrPermanent) && !services.IsRetryable(err),
		}
		var perr *omdb.ProviderError
		if errors.As(err, &perr) {
			out.Detail = perr.Message
		}
		return out
	}
	return Outcome{StatusCode: http.StatusOK, Result: result}
}

// HTTPDispatcher POSTs each item to an /import endpoint, forwarding the
// caller's credentials found in ctx.
type HTTPDispatcher struct {
	BaseURL string
	Client  *http.Client
}

type importRequest struct {
	ExternalID string `json:"externalId"`
	Quality    string `json:"quality,omitempty"`
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

const maxResponseBytes = 1 << 20

// Dispatch implements Dispatcher.
func (d HTTPDispatcher) Dispatch(ctx context.Context, item Item) Outcome {
	body, err := json.Marshal(importRequest{ExternalID: item.ExternalID, Quality: item.Quality})
	if err != nil {
		return Outcome{Message: "encode request", Err: err}
	}
	endpoint := strings.TrimRight(d.BaseURL, "/") + "/import"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{StatusCode: http.StatusBadRequest, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if creds, ok := auth.CredentialsFromContext(ctx); ok {
		creds.Apply(req)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{Message: fmt.Sprintf("call %s", endpoint), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Outcome{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var failure errorBody
		out := Outcome{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if json.Unmarshal(payload, &failure) == nil && failure.Error != "" {
			out.Message = failure.Error
			out.Detail = failure.Detail
		}
		return out
	}

	var result importer.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Outcome{StatusCode: http.StatusBadGateway, Message: "decode import response", Err: err, Permanent: true}
	}
	return Outcome{StatusCode: http.StatusOK, Result: &result}
}
