package azure

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/voices"
)

const (
	previewSynthesizeURL = "wss://eastus.api.speech.microsoft.com/cognitiveservices/websocket/v1"
	previewVoiceListURL  = "https://eastus.api.speech.microsoft.com/cognitiveservices/voices/list"
	previewOrigin        = "https://azure.microsoft.com"
)

// PreviewFree is the demo endpoint behind the Azure portal's voice gallery.
// It takes no real credentials; the Authorization query parameter is a
// literal placeholder.
type PreviewFree struct {
	client *http.Client
	loader *listLoader
	log    zerolog.Logger
}

func NewPreviewFree(client *http.Client, offline bool, log zerolog.Logger) *PreviewFree {
	if client == nil {
		client = http.DefaultClient
	}
	log = log.With().Str("component", "preview-free").Logger()
	return &PreviewFree{
		client: client,
		loader: newListLoader(client, offline, log),
		log:    log,
	}
}

func (p *PreviewFree) Kind() Kind { return KindPreviewFree }

func (p *PreviewFree) Dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL := fmt.Sprintf("%s?TrafficType=AzureDemo&Authorization=bearer%%20undefined&X-ConnectionId=%s",
		previewSynthesizeURL, ConnectionID())

	header := http.Header{}
	header.Set("User-Agent", userAgentDesktop)
	header.Set("Origin", previewOrigin)
	header.Set("Accept-Encoding", "gzip, deflate, br")
	header.Set("Accept-Language", "en-US,en;q=0.9")

	conn, err := dialWebsocket(ctx, wsURL, header, "")
	if err != nil {
		return nil, err
	}
	if err := sendPreamble(conn, browserPreamble); err != nil {
		return nil, err
	}
	return conn, nil
}

func (p *PreviewFree) Voices(ctx context.Context) (*voices.Catalog, error) {
	header := http.Header{}
	header.Set("User-Agent", userAgentDesktop)
	header.Set("Origin", previewOrigin)
	return p.loader.load(ctx, previewVoiceListURL, header, embeddedAzureVoices)
}
