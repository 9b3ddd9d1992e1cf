package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	ttsengine "github.com/snarg/tts-engine"
	"github.com/snarg/tts-engine/internal/voices"
)

func embeddedEdgeVoices() []byte  { return ttsengine.EdgeVoicesFile }
func embeddedAzureVoices() []byte { return ttsengine.AzureVoicesFile }

// listLoader fetches a voice-list document over HTTP and falls back to the
// embedded copy when offline or when the fetch fails.
type listLoader struct {
	client  *http.Client
	offline bool
	log     zerolog.Logger
}

func newListLoader(client *http.Client, offline bool, log zerolog.Logger) *listLoader {
	return &listLoader{client: client, offline: offline, log: log}
}

func (l *listLoader) load(ctx context.Context, url string, header http.Header, fallback func() []byte) (*voices.Catalog, error) {
	if !l.offline {
		cat, err := l.fetch(ctx, url, header)
		if err == nil {
			l.log.Info().Int("voices", cat.Len()).Msg("voice list fetched")
			return cat, nil
		}
		l.log.Warn().Err(err).Msg("voice list fetch failed, using embedded fallback")
	}
	list, err := voices.Parse(fallback())
	if err != nil {
		return nil, fmt.Errorf("embedded voice list: %w", err)
	}
	return voices.NewCatalog(list), nil
}

func (l *listLoader) fetch(ctx context.Context, url string, header http.Header) (*voices.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch voice list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice list endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read voice list: %w", err)
	}
	list, err := voices.Parse(body)
	if err != nil {
		return nil, err
	}
	return voices.NewCatalog(list), nil
}
