package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// synthesisParams is the caller-facing request shape, accepted as query
// parameters on GET and as a JSON body on POST. Rate and pitch use the
// caller scale (1.0 = normal); pointers distinguish absent from zero.
type synthesisParams struct {
	Text      string   `json:"text"`
	Informant string   `json:"informant"`
	Style     string   `json:"style"`
	Rate      *float64 `json:"rate"`
	Pitch     *float64 `json:"pitch"`
	Quality   string   `json:"quality"`
	Token     string   `json:"token"`

	// Optional credential pin for the subscription backend.
	Key    string `json:"key"`
	Region string `json:"region"`
}

func parseSynthesisParams(r *http.Request) (*synthesisParams, error) {
	if r.Method == http.MethodPost {
		p := &synthesisParams{}
		if err := DecodeJSON(r, p); err != nil {
			return nil, fmt.Errorf("decode request body: %w", err)
		}
		return p, nil
	}

	q := r.URL.Query()
	p := &synthesisParams{
		Text:      q.Get("text"),
		Informant: q.Get("informant"),
		Style:     q.Get("style"),
		Quality:   q.Get("quality"),
		Token:     q.Get("token"),
		Key:       q.Get("key"),
		Region:    q.Get("region"),
	}
	for name, dst := range map[string]**float64{"rate": &p.Rate, "pitch": &p.Pitch} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be a number", name, v)
		}
		*dst = &f
	}
	return p, nil
}

// ratePercent maps the caller rate scale (0.0 slowest, 1.0 normal, 3.0
// fastest) to the prosody percent offset.
func ratePercent(rate *float64) int {
	if rate == nil {
		return 0
	}
	return clampInt(int(math.Round(100**rate-100)), -100, 200)
}

// pitchPercent maps the caller pitch scale (0.0 lowest, 1.0 normal, 2.0
// highest) to the prosody percent offset.
func pitchPercent(pitch *float64) int {
	if pitch == nil {
		return 0
	}
	return clampInt(int(math.Round(50**pitch-50)), -50, 50)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const maxDecodePasses = 10

// cjkPunct maps full-width punctuation to its ASCII form plus a space,
// which reads far more naturally in the synthesized audio.
var cjkPunct = strings.NewReplacer(
	"？", "? ",
	"，", ", ",
	"。", ". ",
	"：", ": ",
	"；", "; ",
	"！", "! ",
)

// normalizeText prepares caller text for SSML embedding: URL-decode to a
// fixed point, escape the SSML-significant angle brackets, then replace
// full-width CJK punctuation. The order matters: decoding may surface
// brackets, and replacement never introduces characters the earlier steps
// would act on, so one pass is idempotent.
func normalizeText(text string) string {
	for i := 0; i < maxDecodePasses; i++ {
		decoded, err := url.PathUnescape(text)
		if err != nil || decoded == text {
			break
		}
		text = decoded
	}
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return cjkPunct.Replace(text)
}
