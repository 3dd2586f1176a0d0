// Package source implements the four external data-source adapters behind
// the ports.SourceAdapter contract. Each adapter owns its pacing (a token
// bucket per adapter, never shared), its per-keyword result caps, and its
// quality floor; single-keyword failures are logged and skipped, and only a
// fully unusable source surfaces as a FetchError to the coordinator.
package source

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"WorkflowRadar/internal/domain"
)

// FetchError is the caller-visible failure of one adapter for one scope:
// transport unreachable, auth rejected, or quota exhausted.
type FetchError struct {
	Platform domain.Platform
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Platform, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

func fetchErr(platform domain.Platform, cause error) *FetchError {
	return &FetchError{Platform: platform, Cause: cause}
}

// httpClient builds the per-adapter client with a call-level timeout.
func httpClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return client
}

// decodeJSON drains and decodes one response body into out.
func decodeJSON(body io.Reader, out any) error {
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pacingInterval converts a config millisecond knob into the token-bucket
// refill interval, with a floor to keep a zero config from disabling pacing.
func pacingInterval(millis int) time.Duration {
	if millis <= 0 {
		millis = 100
	}
	return time.Duration(millis) * time.Millisecond
}
