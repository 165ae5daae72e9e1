package call

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carelinehq/intakeline/internal/reliability"
)

// Lifecycle controls the call against the telephony provider.
type Lifecycle interface {
	Accept(ctx context.Context, callSID, initialPrompt string) error
	Hangup(ctx context.Context, callSID string) error
}

// RecordingFetcher is an optional Lifecycle capability: retrieve the call
// recording after hangup. Checked by type assertion during teardown.
type RecordingFetcher interface {
	FetchRecording(ctx context.Context, callSID string) error
}

// ProviderLifecycle drives the provider REST API. The HTTP client is shared
// across calls; request issuance is stateless.
type ProviderLifecycle struct {
	accountSID string
	authToken  string
	baseURL    string
	client     *http.Client
}

func NewProviderLifecycle(accountSID, authToken, baseURL string) *ProviderLifecycle {
	return &ProviderLifecycle{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (l *ProviderLifecycle) Accept(ctx context.Context, callSID, initialPrompt string) error {
	// The media stream connects via the webhook answer document; accepting
	// is a bookkeeping call here.
	log.Printf("call %s accepted", callSID)
	return nil
}

func (l *ProviderLifecycle) Hangup(ctx context.Context, callSID string) error {
	form := url.Values{}
	form.Set("Status", "completed")
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", l.baseURL, l.accountSID, callSID)

	err := l.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("hangup call %s: %w", callSID, err)
	}
	return nil
}

func (l *ProviderLifecycle) FetchRecording(ctx context.Context, callSID string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s/Recordings.json", l.baseURL, l.accountSID, callSID)

	err := l.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return fmt.Errorf("fetch recordings for %s: %w", callSID, err)
	}
	return nil
}

// doWithRetry issues one provider request, retrying transient failures with
// capped backoff. Requests are rebuilt per attempt so bodies can be re-read.
func (l *ProviderLifecycle) doWithRetry(ctx context.Context, build func() (*http.Request, error)) error {
	const attempts = 3
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reliability.Backoff(attempt-1, 250*time.Millisecond, 2*time.Second)):
			}
		}

		req, err := build()
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.SetBasicAuth(l.accountSID, l.authToken)

		resp, err := l.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("provider returned %d", resp.StatusCode)
		if !reliability.RetryableHTTPStatus(resp.StatusCode) {
			return lastErr
		}
	}
	return lastErr
}

// NoopLifecycle is used when no provider credentials are configured, e.g. in
// local development against a media-stream simulator.
type NoopLifecycle struct{}

func (NoopLifecycle) Accept(context.Context, string, string) error { return nil }
func (NoopLifecycle) Hangup(context.Context, string) error         { return nil }
