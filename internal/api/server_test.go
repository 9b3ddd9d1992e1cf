package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	ttsengine "github.com/snarg/tts-engine"
	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/broker"
	"github.com/snarg/tts-engine/internal/config"
	"github.com/snarg/tts-engine/internal/voices"
)

// fakeSynth records the last synthesis call and returns canned output.
type fakeSynth struct {
	enabled  map[azure.Kind]bool
	catalogs map[azure.Kind]*voices.Catalog

	result *broker.Result
	err    error

	lastKind azure.Kind
	lastReq  *azure.SynthesisRequest
	calls    int
}

func (f *fakeSynth) Synthesize(ctx context.Context, kind azure.Kind, req *azure.SynthesisRequest) (*broker.Result, error) {
	f.calls++
	f.lastKind = kind
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeSynth) Enabled(kind azure.Kind) bool { return f.enabled[kind] }

func (f *fakeSynth) Catalog(kind azure.Kind) (*voices.Catalog, bool) {
	c, ok := f.catalogs[kind]
	return c, ok
}

func (f *fakeSynth) OpenSessions() int  { return 0 }
func (f *fakeSynth) InFlightCalls() int { return 0 }

func newFakeSynth() *fakeSynth {
	cat := voices.NewCatalog([]*voices.Voice{
		{ShortName: "zh-CN-XiaoxiaoNeural", Locale: "zh-CN", StyleList: []string{"chat", "newscast"}, DisplayName: "Xiaoxiao", LocalName: "晓晓", VoiceType: "Neural"},
		{ShortName: "en-US-JennyNeural", Locale: "en-US", DisplayName: "Jenny", LocalName: "Jenny", VoiceType: "Neural"},
	})
	return &fakeSynth{
		enabled: map[azure.Kind]bool{
			azure.KindEdgeFree:     true,
			azure.KindSubscription: true,
		},
		catalogs: map[azure.Kind]*voices.Catalog{
			azure.KindEdgeFree:     cat,
			azure.KindSubscription: cat,
		},
		result: &broker.Result{Audio: []byte("audio-bytes"), MediaType: "audio/mpeg"},
	}
}

func testServer(t *testing.T, synth *fakeSynth, token string) *httptest.Server {
	t.Helper()
	cfg := &config.Config{HTTPAddr: ":0", SubscribeAuthToken: token}
	s := NewServer(cfg, synth, "test", time.Now(), zerolog.Nop())
	srv := httptest.NewServer(s.http.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSynthesisGet(t *testing.T) {
	synth := newFakeSynth()
	srv := testServer(t, synth, "")

	resp, err := http.Get(srv.URL + "/api/tts-ms-edge?text=Hello&rate=1.5&pitch=1&informant=en-US-JennyNeural")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if synth.lastKind != azure.KindEdgeFree {
		t.Errorf("kind = %v", synth.lastKind)
	}
	req := synth.lastReq
	if req.Text != "Hello" || req.Voice != "en-US-JennyNeural" {
		t.Errorf("req = %+v", req)
	}
	if req.Rate != 50 || req.Pitch != 0 {
		t.Errorf("rate/pitch = %d/%d, want 50/0", req.Rate, req.Pitch)
	}
}

func TestSynthesisEmptyTextReturnsSilence(t *testing.T) {
	synth := newFakeSynth()
	srv := testServer(t, synth, "")

	for _, q := range []string{"", "?text=", "?text=%2520"} {
		resp, err := http.Get(srv.URL + "/api/tts-ms-edge" + q)
		if err != nil {
			t.Fatal(err)
		}
		body := new(bytes.Buffer)
		body.ReadFrom(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%q: status = %d", q, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
			t.Errorf("%q: Content-Type = %q", q, ct)
		}
		if !bytes.Equal(body.Bytes(), ttsengine.BlankMP3) {
			t.Errorf("%q: body is not the embedded silent mp3", q)
		}
	}
	if synth.calls != 0 {
		t.Errorf("broker called %d times for empty text", synth.calls)
	}
}

func TestSynthesisPostSubscribe(t *testing.T) {
	synth := newFakeSynth()
	srv := testServer(t, synth, "sekrit")

	body := `{"text":"你好，世界","informant":"zh-CN-YunxiNeural","style":"chat","rate":2.0,"pitch":1.0,"quality":"audio-24khz-96kbitrate-mono-mp3","token":"sekrit"}`
	resp, err := http.Post(srv.URL+"/api/tts-ms-subscribe", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	req := synth.lastReq
	if req.Text != "你好, 世界" {
		t.Errorf("Text = %q, want normalized punctuation", req.Text)
	}
	if req.Rate != 100 || req.Pitch != 0 {
		t.Errorf("rate/pitch = %d/%d, want 100/0", req.Rate, req.Pitch)
	}
	if req.Style != "chat" || req.Quality != "audio-24khz-96kbitrate-mono-mp3" {
		t.Errorf("req = %+v", req)
	}
}

func TestSubscribeTokenAuth(t *testing.T) {
	synth := newFakeSynth()
	srv := testServer(t, synth, "sekrit")

	tests := []struct {
		name   string
		build  func() *http.Request
		status int
	}{
		{
			name: "no token",
			build: func() *http.Request {
				r, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tts-ms-subscribe?text=hi", nil)
				return r
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "wrong token",
			build: func() *http.Request {
				r, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tts-ms-subscribe?text=hi&token=nope", nil)
				return r
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "header token",
			build: func() *http.Request {
				r, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tts-ms-subscribe?text=hi", nil)
				r.Header.Set("token", "sekrit")
				return r
			},
			status: http.StatusOK,
		},
		{
			name: "query token",
			build: func() *http.Request {
				r, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tts-ms-subscribe?text=hi&token=sekrit", nil)
				return r
			},
			status: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.DefaultClient.Do(tt.build())
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestSynthesisErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{broker.ErrVoiceUnknown, http.StatusBadRequest},
		{azure.ErrPermissionDenied, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{broker.ErrSessionClosed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		synth := newFakeSynth()
		synth.result = nil
		synth.err = tt.err
		srv := testServer(t, synth, "")

		resp, err := http.Get(srv.URL + "/api/tts-ms-edge?text=hi")
		if err != nil {
			t.Fatal(err)
		}
		var body ErrorResponse
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		if resp.StatusCode != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, resp.StatusCode, tt.status)
		}
		if body.Error == "" {
			t.Errorf("%v: empty error envelope", tt.err)
		}
	}
}

func TestDisabledBackendNotRouted(t *testing.T) {
	synth := newFakeSynth()
	synth.enabled[azure.KindSubscription] = false
	srv := testServer(t, synth, "")

	resp, err := http.Get(srv.URL + "/api/tts-ms-subscribe?text=hi")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want not-found", resp.StatusCode)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	synth := newFakeSynth()
	srv := testServer(t, synth, "")

	t.Run("list", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/list")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var list []map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("got %d descriptors, want 2", len(list))
		}
		if list[0]["api_id"] != "ms-tts-edge" || list[1]["api_id"] != "ms-tts-subscribe" {
			t.Errorf("descriptor ids = %v, %v", list[0]["api_id"], list[1]["api_id"])
		}
	})

	t.Run("informants", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/ms-tts/informant/ms-tts-edge")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var items []ListItem
		if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Fatalf("got %d informants, want 2", len(items))
		}
		if items[0].Value != "en-US-JennyNeural" {
			t.Errorf("items[0] = %+v", items[0])
		}
	})

	t.Run("styles general first", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/ms-tts/style/ms-tts-edge/zh-CN-XiaoxiaoNeural")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var styles []string
		if err := json.NewDecoder(resp.Body).Decode(&styles); err != nil {
			t.Fatal(err)
		}
		want := []string{"general", "chat", "newscast"}
		if len(styles) != len(want) {
			t.Fatalf("styles = %v", styles)
		}
		for i := range want {
			if styles[i] != want[i] {
				t.Fatalf("styles = %v, want %v", styles, want)
			}
		}
	})

	t.Run("qualities", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/ms-tts/quality")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var qualities []string
		if err := json.NewDecoder(resp.Body).Decode(&qualities); err != nil {
			t.Fatal(err)
		}
		if len(qualities) != 32 {
			t.Errorf("got %d qualities, want 32", len(qualities))
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/ms-tts/informant/ms-tts-nope")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	synth := newFakeSynth()
	srv := testServer(t, synth, "")

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var h HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "healthy" {
		t.Errorf("status = %q", h.Status)
	}
	if h.Backends["ms-tts-edge"] != 2 {
		t.Errorf("edge catalog size = %d", h.Backends["ms-tts-edge"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, newFakeSynth(), "")
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	if !strings.Contains(body.String(), "tts_engine_http_requests_total") {
		t.Error("exposition missing http request counter")
	}
}
