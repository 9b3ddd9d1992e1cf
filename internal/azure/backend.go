package azure

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/snarg/tts-engine/internal/voices"
)

// Kind identifies one upstream provider variant.
type Kind int

const (
	KindEdgeFree Kind = iota
	KindPreviewFree
	KindSubscription
)

func (k Kind) String() string {
	switch k {
	case KindEdgeFree:
		return "ms-tts-edge"
	case KindPreviewFree:
		return "ms-tts-preview"
	case KindSubscription:
		return "ms-tts-subscribe"
	}
	return "unknown"
}

// ParseKind maps a catalog route segment back to its backend.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "ms-tts-edge":
		return KindEdgeFree, nil
	case "ms-tts-preview":
		return KindPreviewFree, nil
	case "ms-tts-subscribe":
		return KindSubscription, nil
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// Backend dials and prepares one upstream websocket variant.
type Backend interface {
	Kind() Kind
	// Dial opens a websocket, completes any auth, and sends the
	// speech.config preamble. The connection is ready for synthesis frames.
	Dial(ctx context.Context) (*websocket.Conn, error)
	// Voices fetches this backend's voice catalog, falling back to the
	// embedded list when the fetch fails.
	Voices(ctx context.Context) (*voices.Catalog, error)
}

const (
	userAgentDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36 Edg/107.0.1379.1"
	userAgentEdge    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/102.0.5005.63 Safari/537.36 Edg/102.0.1245.39"

	handshakeTimeout = 15 * time.Second
)

// ConnectionID returns a fresh 32-char lowercase hex connection identifier.
func ConnectionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// dialWebsocket performs the websocket handshake. A non-empty pinnedIP
// replaces DNS resolution; certificate verification is relaxed for pinned
// dials because the IP will not match the certificate SAN list.
func dialWebsocket(ctx context.Context, wsURL string, header http.Header, pinnedIP string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  handshakeTimeout,
		EnableCompression: true,
	}
	if pinnedIP != "" {
		dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			_, port, err := net.SplitHostPort(addr)
			if err != nil {
				port = "443"
			}
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(pinnedIP, port))
		}
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, fmt.Errorf("%w: handshake rejected with %s", ErrPermissionDenied, resp.Status)
			}
			return nil, fmt.Errorf("%w: handshake failed with %s: %v", ErrUpstream, resp.Status, err)
		}
		return nil, fmt.Errorf("%w: dial: %v", ErrUpstream, err)
	}
	return conn, nil
}

// sendPreamble delivers the speech.config frame on a fresh connection.
func sendPreamble(conn *websocket.Conn, body string) error {
	frame := fmt.Sprintf("Path: speech.config\r\nX-Timestamp: %s\r\nContent-Type: application/json\r\n\r\n%s",
		timestamp(), body)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		conn.Close()
		return fmt.Errorf("%w: send speech.config: %v", ErrUpstream, err)
	}
	return nil
}

const browserPreamble = `{"context":{"system":{"name":"SpeechSDK","version":"1.19.0","build":"JavaScript","lang":"JavaScript"},"os":{"platform":"Browser/Win32","name":"Mozilla","version":"5.0 (Windows NT 10.0; Win64; x64)"}}}`
