package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iterative/telemetry-go/pkg/useragent"
)

// postEvent issues the single outbound POST: JSON body, auth token as a
// query parameter, bounded by the POST timeout. The response body is never
// consumed beyond the status line.
func postEvent(ctx context.Context, client HTTPClient, rawURL, token string, p *Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", useragent.Header)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post event: unexpected status %s", resp.Status)
	}
	return nil
}
