package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Issued bearer tokens are valid for 10 minutes; refresh a little early.
const tokenTTL = 8 * time.Minute

// TokenSource exchanges a subscription key for a short-lived bearer token
// and caches it until it nears expiry. Safe for concurrent use.
type TokenSource struct {
	cred     Credential
	client   *http.Client
	log      zerolog.Logger
	endpoint string

	mu       sync.Mutex
	token    string
	issuedAt time.Time
}

func NewTokenSource(cred Credential, client *http.Client, log zerolog.Logger) *TokenSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenSource{
		cred:     cred,
		client:   client,
		log:      log.With().Str("component", "auth").Str("credential", cred.Hash()).Logger(),
		endpoint: fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", cred.Region),
	}
}

// Token returns a cached bearer token, refreshing it when stale. A 401 from
// the token service returns ErrPermissionDenied; other failures are
// retryable upstream errors.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Since(ts.issuedAt) < tokenTTL {
		return ts.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", ts.cred.Key)
	req.Header.Set("Content-Length", "0")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		ts.log.Error().Str("region", ts.cred.Region).Msg("subscription key rejected by token service")
		return "", ErrPermissionDenied
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("%w: token service returned %s", ErrUpstream, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %v", ErrUpstream, err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: token service returned empty body", ErrUpstream)
	}

	ts.token = string(body)
	ts.issuedAt = time.Now()
	ts.log.Debug().Str("region", ts.cred.Region).Msg("bearer token refreshed")
	return ts.token, nil
}

// Invalidate drops the cached token so the next Token call refreshes.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.mu.Unlock()
}
