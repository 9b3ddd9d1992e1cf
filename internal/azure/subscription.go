package azure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/voices"
)

// Subscription is the official speech websocket bound to one subscription
// key. Its voice catalog is fetched once per credential and cached.
type Subscription struct {
	cred   Credential
	tokens *TokenSource
	client *http.Client
	loader *listLoader
	log    zerolog.Logger

	mu      sync.Mutex
	catalog *voices.Catalog
}

func NewSubscription(cred Credential, client *http.Client, offline bool, log zerolog.Logger) *Subscription {
	if client == nil {
		client = http.DefaultClient
	}
	log = log.With().Str("component", "subscription").Str("credential", cred.Hash()).Logger()
	return &Subscription{
		cred:   cred,
		tokens: NewTokenSource(cred, client, log),
		client: client,
		loader: newListLoader(client, offline, log),
		log:    log,
	}
}

func (s *Subscription) Kind() Kind { return KindSubscription }

func (s *Subscription) Credential() Credential { return s.cred }

func (s *Subscription) Dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	wsURL := fmt.Sprintf("wss://%s.tts.speech.microsoft.com/cognitiveservices/websocket/v1?Authorization=bearer%%20%s&X-ConnectionId=%s",
		s.cred.Region, url.QueryEscape(token), ConnectionID())

	header := http.Header{}
	header.Set("User-Agent", userAgentDesktop)
	header.Set("Accept-Encoding", "gzip, deflate, br")
	header.Set("Accept-Language", "en-US,en;q=0.9")

	conn, err := dialWebsocket(ctx, wsURL, header, "")
	if err != nil {
		// A rejected handshake usually means the cached token aged out
		// server-side. Drop it so the next dial refreshes.
		s.tokens.Invalidate()
		return nil, err
	}
	if err := sendPreamble(conn, browserPreamble); err != nil {
		return nil, err
	}
	return conn, nil
}

// Voices returns this credential's region catalog, fetching it on first use.
func (s *Subscription) Voices(ctx context.Context) (*voices.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog != nil {
		return s.catalog, nil
	}

	cat, err := s.fetchVoices(ctx)
	if err != nil {
		return nil, err
	}
	s.catalog = cat
	return cat, nil
}

func (s *Subscription) fetchVoices(ctx context.Context) (*voices.Catalog, error) {
	header := http.Header{}
	header.Set("User-Agent", userAgentDesktop)
	if token, err := s.tokens.Token(ctx); err == nil {
		header.Set("Authorization", "Bearer "+token)
	} else {
		s.log.Warn().Err(err).Msg("voice list fetch without bearer token")
	}
	listURL := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list", s.cred.Region)
	return s.loader.load(ctx, listURL, header, embeddedAzureVoices)
}

// MixedCatalog intersects the catalogs of every credential so that
// round-robin routing never picks a voice some region lacks.
func MixedCatalog(ctx context.Context, backends []*Subscription) (*voices.Catalog, error) {
	cats := make([]*voices.Catalog, 0, len(backends))
	for _, b := range backends {
		cat, err := b.Voices(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog for credential %s: %w", b.cred.Hash(), err)
		}
		cats = append(cats, cat)
	}
	return voices.Intersect(cats...), nil
}
