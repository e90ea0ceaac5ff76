package taxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taxsync/internal/apperr"
)

// RESTTransport posts JSON to <endpoint>/<Method>/.
type RESTTransport struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTTransport(baseURL string, httpClient *http.Client) *RESTTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTTransport{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

func (t *RESTTransport) Call(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(map[string]any{"Request": in})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/%s/", t.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", apperr.ErrRemoteUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperr.ErrRemoteUnavailable, err)
	}

	// ASP.NET script services wrap the payload in {"d": ...}.
	var wrapped struct {
		D json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.D) > 0 && string(wrapped.D) != "null" {
		raw = wrapped.D
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperr.ErrRemoteUnavailable, method, err)
	}
	return nil
}
