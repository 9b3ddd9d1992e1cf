package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/metrics"
	"github.com/snarg/tts-engine/internal/voices"
)

var (
	// ErrBackendDisabled means the requested backend is switched off in config.
	ErrBackendDisabled = errors.New("broker: backend disabled")

	// ErrVoiceUnknown means the requested voice is absent from the effective
	// catalog and no default substitution applies.
	ErrVoiceUnknown = errors.New("broker: unknown voice")
)

// Validation defaults applied before frames are generated.
const (
	DefaultVoice = "zh-CN-XiaoxiaoNeural"
	DefaultStyle = "general"

	DefaultTimeout = 30 * time.Second
)

// Rate and pitch are prosody percentage offsets.
const (
	RateMin  = -100
	RateMax  = 200
	PitchMin = -50
	PitchMax = 50
)

// Options wires a Broker. A nil backend (or empty Subscriptions) leaves that
// backend disabled.
type Options struct {
	Edge          *azure.EdgeFree
	Preview       *azure.PreviewFree
	Subscriptions []azure.Credential
	// SubscriptionFactory builds the upstream for one credential; required
	// when Subscriptions is non-empty or pinning is allowed.
	SubscriptionFactory func(azure.Credential) *azure.Subscription

	Timeout time.Duration
	Log     zerolog.Logger
}

// Broker validates synthesis parameters against the voice catalogs, routes
// each call to a pooled upstream session, and enforces the per-call deadline.
type Broker struct {
	log     zerolog.Logger
	timeout time.Duration

	edge    *Pool
	preview *Pool
	subs    *SubscriptionPool

	catalogs map[azure.Kind]*voices.Catalog
}

func New(opts Options) *Broker {
	b := &Broker{
		log:      opts.Log.With().Str("component", "broker").Logger(),
		timeout:  opts.Timeout,
		catalogs: make(map[azure.Kind]*voices.Catalog),
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if opts.Edge != nil {
		b.edge = NewPool(opts.Edge, opts.Log)
	}
	if opts.Preview != nil {
		b.preview = NewPool(opts.Preview, opts.Log)
	}
	if opts.SubscriptionFactory != nil && len(opts.Subscriptions) > 0 {
		b.subs = NewSubscriptionPool(opts.Subscriptions, opts.SubscriptionFactory, opts.Log)
	}
	return b
}

// WarmUp fetches the voice catalogs for every enabled backend. The
// subscription catalog is the intersection across all credentials.
func (b *Broker) WarmUp(ctx context.Context) error {
	if b.edge != nil {
		cat, err := b.edge.backend.Voices(ctx)
		if err != nil {
			return fmt.Errorf("edge catalog: %w", err)
		}
		b.catalogs[azure.KindEdgeFree] = cat
	}
	if b.preview != nil {
		cat, err := b.preview.backend.Voices(ctx)
		if err != nil {
			return fmt.Errorf("preview catalog: %w", err)
		}
		b.catalogs[azure.KindPreviewFree] = cat
	}
	if b.subs != nil {
		cat, err := azure.MixedCatalog(ctx, b.subs.Backends())
		if err != nil {
			return fmt.Errorf("subscription catalog: %w", err)
		}
		b.catalogs[azure.KindSubscription] = cat
	}
	for kind, cat := range b.catalogs {
		b.log.Info().Str("backend", kind.String()).Int("voices", cat.Len()).Msg("catalog ready")
	}
	return nil
}

// Enabled reports whether the backend can serve synthesis calls.
func (b *Broker) Enabled(kind azure.Kind) bool {
	switch kind {
	case azure.KindEdgeFree:
		return b.edge != nil
	case azure.KindPreviewFree:
		return b.preview != nil
	case azure.KindSubscription:
		return b.subs != nil
	}
	return false
}

// Catalog returns the warm catalog for an enabled backend.
func (b *Broker) Catalog(kind azure.Kind) (*voices.Catalog, bool) {
	cat, ok := b.catalogs[kind]
	return cat, ok
}

// Synthesize validates req in place, routes it to a session, and blocks for
// the audio or an error. Unknown voices fall back to the default voice,
// except when the call is pinned to one credential, where a silent fallback
// would mask a misconfigured catalog.
func (b *Broker) Synthesize(ctx context.Context, kind azure.Kind, req *azure.SynthesisRequest) (*Result, error) {
	if !b.Enabled(kind) {
		return nil, fmt.Errorf("%w: %s", ErrBackendDisabled, kind)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cat, pinned, err := b.effectiveCatalog(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	if err := b.validate(req, cat, pinned); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = azure.ConnectionID()
	}

	session, err := b.acquire(ctx, kind, req)
	if err != nil {
		metrics.SynthesisTotal.WithLabelValues(kind.String(), "dial_error").Inc()
		return nil, err
	}

	start := time.Now()
	res, err := session.Call(ctx, req.RequestID, azure.SynthesisFrames(kind, req))
	if err != nil {
		metrics.SynthesisTotal.WithLabelValues(kind.String(), "error").Inc()
		b.log.Warn().Err(err).
			Str("backend", kind.String()).
			Str("request_id", req.RequestID).
			Str("voice", req.Voice).
			Msg("synthesis failed")
		return nil, err
	}

	metrics.SynthesisTotal.WithLabelValues(kind.String(), "ok").Inc()
	metrics.SynthesisDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	metrics.AudioBytesTotal.WithLabelValues(kind.String()).Add(float64(len(res.Audio)))
	b.log.Info().
		Str("backend", kind.String()).
		Str("request_id", req.RequestID).
		Str("voice", req.Voice).
		Int("bytes", len(res.Audio)).
		Dur("elapsed", time.Since(start)).
		Msg("synthesis complete")
	return res, nil
}

// effectiveCatalog is the mixed catalog for unpinned calls and the single
// credential's own catalog for pinned ones.
func (b *Broker) effectiveCatalog(ctx context.Context, kind azure.Kind, req *azure.SynthesisRequest) (*voices.Catalog, bool, error) {
	if kind == azure.KindSubscription && req.Credential != nil {
		cat, err := b.subs.Backend(*req.Credential).Voices(ctx)
		if err != nil {
			return nil, true, fmt.Errorf("pinned credential catalog: %w", err)
		}
		return cat, true, nil
	}
	cat, ok := b.catalogs[kind]
	if !ok {
		return nil, false, fmt.Errorf("no catalog for backend %s", kind)
	}
	return cat, false, nil
}

func (b *Broker) validate(req *azure.SynthesisRequest, cat *voices.Catalog, pinned bool) error {
	if req.Voice == "" {
		req.Voice = DefaultVoice
	} else if !cat.Has(req.Voice) {
		if pinned {
			return fmt.Errorf("%w: %s not offered by pinned credential", ErrVoiceUnknown, req.Voice)
		}
		req.Voice = DefaultVoice
	}
	voice, ok := cat.Get(req.Voice)
	if !ok {
		return fmt.Errorf("%w: %s", ErrVoiceUnknown, req.Voice)
	}

	req.Style = coerceStyle(voice, req.Style)
	req.Rate = clamp(req.Rate, RateMin, RateMax)
	req.Pitch = clamp(req.Pitch, PitchMin, PitchMax)
	if !azure.ValidQuality(req.Quality) {
		req.Quality = azure.DefaultQuality
	}
	return nil
}

func (b *Broker) acquire(ctx context.Context, kind azure.Kind, req *azure.SynthesisRequest) (*Session, error) {
	switch kind {
	case azure.KindEdgeFree:
		return b.edge.Acquire(ctx)
	case azure.KindPreviewFree:
		return b.preview.Acquire(ctx)
	default:
		return b.subs.Acquire(ctx, req.Credential)
	}
}

// coerceStyle keeps styles the voice advertises and downgrades everything
// else to the default.
func coerceStyle(v *voices.Voice, style string) string {
	if style == "" || style == DefaultStyle {
		return DefaultStyle
	}
	for _, s := range v.Styles() {
		if strings.EqualFold(s, style) {
			return style
		}
	}
	return DefaultStyle
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// InFlightCalls implements metrics.BrokerStats.
func (b *Broker) InFlightCalls() int {
	n := 0
	if b.edge != nil {
		n += b.edge.InFlight()
	}
	if b.preview != nil {
		n += b.preview.InFlight()
	}
	if b.subs != nil {
		n += b.subs.InFlight()
	}
	return n
}

// OpenSessions implements metrics.BrokerStats.
func (b *Broker) OpenSessions() int {
	n := 0
	if b.edge != nil {
		n += b.edge.OpenSessions()
	}
	if b.preview != nil {
		n += b.preview.OpenSessions()
	}
	if b.subs != nil {
		n += b.subs.OpenSessions()
	}
	return n
}
