package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	ttsengine "github.com/snarg/tts-engine"
	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/broker"
)

type catalogHandler struct {
	broker Synthesizer
}

// ListItem is one selectable option in the catalog endpoints.
type ListItem struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// handleList returns the static API descriptors for the enabled backends.
func (h *catalogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	descriptors := []struct {
		kind azure.Kind
		raw  []byte
	}{
		{azure.KindEdgeFree, ttsengine.APIDescriptorEdge},
		{azure.KindSubscription, ttsengine.APIDescriptorSubscribe},
	}
	out := make([]json.RawMessage, 0, len(descriptors))
	for _, d := range descriptors {
		if h.broker.Enabled(d.kind) {
			out = append(out, d.raw)
		}
	}
	WriteJSON(w, http.StatusOK, out)
}

// backendCatalog resolves the {backend} route segment to its warm catalog.
func (h *catalogHandler) backendCatalog(w http.ResponseWriter, r *http.Request) (azure.Kind, bool) {
	kind, err := azure.ParseKind(chi.URLParam(r, "backend"))
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return 0, false
	}
	if !h.broker.Enabled(kind) {
		WriteError(w, http.StatusNotFound, "backend disabled")
		return 0, false
	}
	return kind, true
}

func (h *catalogHandler) handleInformants(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.backendCatalog(w, r)
	if !ok {
		return
	}
	cat, ok := h.broker.Catalog(kind)
	if !ok {
		WriteError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}

	items := make([]ListItem, 0, cat.Len())
	for _, name := range cat.Names() {
		v, _ := cat.Get(name)
		items = append(items, ListItem{Value: name, Label: v.Desc()})
	}
	WriteJSON(w, http.StatusOK, items)
}

// handleStyles lists the styles a voice supports, always starting with the
// default style.
func (h *catalogHandler) handleStyles(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.backendCatalog(w, r)
	if !ok {
		return
	}
	cat, ok := h.broker.Catalog(kind)
	if !ok {
		WriteError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}
	voice, ok := cat.Get(chi.URLParam(r, "voice"))
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown voice")
		return
	}

	styles := []string{broker.DefaultStyle}
	for _, s := range voice.Styles() {
		if !strings.EqualFold(s, broker.DefaultStyle) {
			styles = append(styles, s)
		}
	}
	WriteJSON(w, http.StatusOK, styles)
}

func (h *catalogHandler) handleQualities(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, azure.QualityList)
}
