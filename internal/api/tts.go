package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	ttsengine "github.com/snarg/tts-engine"
	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/broker"
	"github.com/snarg/tts-engine/internal/voices"
)

// Synthesizer is the broker surface the HTTP layer consumes.
type Synthesizer interface {
	Synthesize(ctx context.Context, kind azure.Kind, req *azure.SynthesisRequest) (*broker.Result, error)
	Enabled(kind azure.Kind) bool
	Catalog(kind azure.Kind) (*voices.Catalog, bool)
	OpenSessions() int
	InFlightCalls() int
}

type ttsHandler struct {
	broker         Synthesizer
	subscribeToken string
}

// handle serves one synthesis route. Empty text short-circuits with the
// embedded silent MP3 instead of an upstream round trip.
func (h *ttsHandler) handle(kind azure.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseSynthesisParams(r)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if kind == azure.KindSubscription && !h.authorized(r, params) {
			WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		text := normalizeText(params.Text)
		if strings.TrimSpace(text) == "" {
			WriteAudio(w, ttsengine.BlankMP3, "audio/mpeg")
			return
		}

		req := &azure.SynthesisRequest{
			Text:    text,
			Voice:   params.Informant,
			Style:   params.Style,
			Rate:    ratePercent(params.Rate),
			Pitch:   pitchPercent(params.Pitch),
			Quality: params.Quality,
		}
		if kind == azure.KindSubscription && params.Key != "" {
			cred, err := azure.ParseCredential(params.Key + "," + params.Region)
			if err != nil {
				WriteErrorDetail(w, http.StatusBadRequest, "invalid credential pin", err.Error())
				return
			}
			req.Credential = &cred
		}

		res, err := h.broker.Synthesize(r.Context(), kind, req)
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("backend", kind.String()).Msg("synthesis failed")
			writeSynthesisError(w, err)
			return
		}
		WriteAudio(w, res.Audio, res.MediaType)
	}
}

// authorized enforces the optional shared secret on the subscription route.
// The token may arrive as a header, a query parameter, or a JSON body field.
func (h *ttsHandler) authorized(r *http.Request, params *synthesisParams) bool {
	if h.subscribeToken == "" {
		return true
	}
	provided := r.Header.Get("token")
	if provided == "" {
		provided = r.URL.Query().Get("token")
	}
	if provided == "" {
		provided = params.Token
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.subscribeToken)) == 1
}

func writeSynthesisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, broker.ErrVoiceUnknown):
		WriteErrorDetail(w, http.StatusBadRequest, "unknown voice", err.Error())
	case errors.Is(err, broker.ErrBackendDisabled):
		WriteError(w, http.StatusNotFound, "backend disabled")
	case errors.Is(err, azure.ErrPermissionDenied):
		WriteError(w, http.StatusBadGateway, "upstream rejected credentials")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "synthesis timed out")
	default:
		WriteErrorDetail(w, http.StatusBadGateway, "synthesis failed", err.Error())
	}
}
