package azure

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Inbound message paths on the speech websocket.
const (
	PathTurnStart = "turn.start"
	PathTurnEnd   = "turn.end"
	PathResponse  = "response"
	PathAudio     = "audio"
)

// TextMessage is a parsed text frame: MIME-style headers terminated by a
// blank line, then an optional body.
type TextMessage struct {
	Path      string
	RequestID string
	Headers   map[string]string
	Body      string
}

// ParseTextMessage splits a text frame into its header block and body.
func ParseTextMessage(data []byte) (*TextMessage, error) {
	head, body, _ := strings.Cut(string(data), "\r\n\r\n")
	headers, err := parseHeaderBlock(head)
	if err != nil {
		return nil, err
	}
	m := &TextMessage{
		Path:      headers["Path"],
		RequestID: headers["X-RequestId"],
		Headers:   headers,
		Body:      body,
	}
	if m.Path == "" {
		return nil, fmt.Errorf("text frame missing Path header")
	}
	return m, nil
}

// BinaryMessage is a parsed binary frame: a big-endian uint16 header length,
// the ASCII header block, then the audio payload.
type BinaryMessage struct {
	Path      string
	RequestID string
	// ContentType is set from the frame's Content-Type header when present.
	ContentType string
	Payload     []byte
}

// HasAudio reports whether the frame carries audio bytes. Frames whose
// header block fills the entire message are turn markers, not data.
func (m *BinaryMessage) HasAudio() bool {
	return m.Path == PathAudio && len(m.Payload) > 0
}

// ParseBinaryMessage decodes a binary frame. The two-byte length prefix
// covers only the header block; everything after it is payload.
func ParseBinaryMessage(data []byte) (*BinaryMessage, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("binary frame too short: %d bytes", len(data))
	}
	headLen := int(binary.BigEndian.Uint16(data[:2]))
	if 2+headLen > len(data) {
		return nil, fmt.Errorf("binary frame header length %d exceeds frame size %d", headLen, len(data))
	}
	headers, err := parseHeaderBlock(string(data[2 : 2+headLen]))
	if err != nil {
		return nil, err
	}
	return &BinaryMessage{
		Path:        headers["Path"],
		RequestID:   headers["X-RequestId"],
		ContentType: headers["Content-Type"],
		Payload:     data[2+headLen:],
	}, nil
}

func parseHeaderBlock(block string) (map[string]string, error) {
	headers := make(map[string]string)
	for _, line := range strings.Split(block, "\r\n") {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}
