package azure

import (
	"fmt"
	"time"
)

// SynthesisRequest carries one validated synthesis call to a backend.
// Rate and Pitch are prosody percentage offsets, already clamped.
type SynthesisRequest struct {
	RequestID string
	Text      string
	Voice     string
	Style     string
	Rate      int
	Pitch     int
	Quality   string

	// Credential pins the call to one subscription key. Nil means the pool
	// routes it round-robin. Ignored by the free backends.
	Credential *Credential
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ContextFrame builds the synthesis.context text frame that configures the
// output format for the request that follows it.
func ContextFrame(req *SynthesisRequest) string {
	body := fmt.Sprintf(`{"synthesis":{"audio":{"metadataOptions":{"sentenceBoundaryEnabled":false,"wordBoundaryEnabled":false},"outputFormat":"%s"},"language":{"autoDetection":false}}}`, req.Quality)
	return fmt.Sprintf("Path: synthesis.context\r\nX-RequestId: %s\r\nX-Timestamp: %s\r\nContent-Type: application/json\r\n\r\n%s",
		req.RequestID, timestamp(), body)
}

// SSMLFrame builds the ssml text frame carrying voice, style, prosody and
// the text to synthesize.
func SSMLFrame(req *SynthesisRequest) string {
	ssml := fmt.Sprintf(`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xmlns:mstts='https://www.w3.org/2001/mstts' xmlns:emo='http://www.w3.org/2009/10/emotionml' xml:lang='en-US'><voice name='%s'><mstts:express-as style='%s'><prosody rate='%d%%' pitch='%d%%'>%s</prosody></mstts:express-as></voice></speak>`,
		req.Voice, req.Style, req.Rate, req.Pitch, req.Text)
	return fmt.Sprintf("Path: ssml\r\nX-RequestId: %s\r\nX-Timestamp: %s\r\nContent-Type: application/ssml+xml\r\n\r\n%s",
		req.RequestID, timestamp(), ssml)
}

// SynthesisFrames returns the ordered text frames a backend of the given
// kind sends per request. Edge sessions pin the output format at connect
// time, so they take only the ssml frame.
func SynthesisFrames(kind Kind, req *SynthesisRequest) []string {
	if kind == KindEdgeFree {
		return []string{SSMLFrame(req)}
	}
	return []string{ContextFrame(req), SSMLFrame(req)}
}
