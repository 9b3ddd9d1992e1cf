package azure

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/voices"
)

// Area selects the network path for the free Edge endpoint. Non-default
// areas dial a pinned IP so the endpoint stays reachable where DNS answers
// are unusable.
type Area string

const (
	AreaDefault Area = "default"
	AreaChina   Area = "china"
	AreaChinaHK Area = "china-hk"
	AreaChinaTW Area = "china-tw"
)

var areaIPs = map[Area][]string{
	AreaChina: {
		"202.89.233.100",
		"202.89.233.101",
		"202.89.233.102",
		"202.89.233.103",
		"202.89.233.104",
		"182.61.148.24",
	},
	AreaChinaHK: {
		"149.129.121.248",
		"149.129.88.238",
		"103.68.61.91",
		"47.75.141.93",
		"47.240.87.168",
		"47.57.114.186",
		"150.109.51.247",
		"35.241.115.60",
	},
	AreaChinaTW: {
		"34.81.240.201",
		"34.80.106.199",
	},
}

// Trusted client token embedded in the Edge browser's read-aloud feature.
const edgeTrustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

const (
	edgeSynthesizeURL = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeVoiceListURL  = "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/voices/list?trustedclienttoken=" + edgeTrustedClientToken
	edgeOrigin        = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
)

// Edge sessions fix the output format at connect time.
const edgePreamble = `{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"webm-24khz-16bit-mono-opus"}}}}`

// EdgeFree is the unauthenticated read-aloud endpoint bundled with the Edge
// browser.
type EdgeFree struct {
	area   Area
	client *http.Client
	loader *listLoader
	log    zerolog.Logger
}

func NewEdgeFree(area Area, client *http.Client, offline bool, log zerolog.Logger) *EdgeFree {
	if client == nil {
		client = http.DefaultClient
	}
	log = log.With().Str("component", "edge-free").Logger()
	return &EdgeFree{
		area:   area,
		client: client,
		loader: newListLoader(client, offline, log),
		log:    log,
	}
}

func (e *EdgeFree) Kind() Kind { return KindEdgeFree }

func (e *EdgeFree) pinnedIP() string {
	ips := areaIPs[e.area]
	if len(ips) == 0 {
		return ""
	}
	return ips[rand.Intn(len(ips))]
}

func (e *EdgeFree) Dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s",
		edgeSynthesizeURL, edgeTrustedClientToken, ConnectionID())

	header := http.Header{}
	header.Set("User-Agent", userAgentEdge)
	header.Set("Origin", edgeOrigin)
	header.Set("Accept-Encoding", "gzip, deflate, br")
	header.Set("Accept-Language", "en-US,en;q=0.9")
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")

	ip := e.pinnedIP()
	if ip != "" {
		e.log.Debug().Str("ip", ip).Str("area", string(e.area)).Msg("dialing pinned endpoint")
	}
	conn, err := dialWebsocket(ctx, wsURL, header, ip)
	if err != nil {
		return nil, err
	}
	if err := sendPreamble(conn, edgePreamble); err != nil {
		return nil, err
	}
	return conn, nil
}

func (e *EdgeFree) Voices(ctx context.Context) (*voices.Catalog, error) {
	header := http.Header{}
	header.Set("User-Agent", userAgentEdge)
	header.Set("Origin", edgeOrigin)
	return e.loader.load(ctx, edgeVoiceListURL, header, embeddedEdgeVoices)
}
