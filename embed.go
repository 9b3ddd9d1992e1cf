package ttsengine

import _ "embed"

// Fallback voice lists, used when the upstream voice-list endpoints are
// unreachable at startup.

//go:embed resource/edge_voices_list.json
var EdgeVoicesFile []byte

//go:embed resource/azure_voices_list.json
var AzureVoicesFile []byte

// BlankMP3 is one second of silence, returned verbatim for empty-text requests.
//
//go:embed resource/blank.mp3
var BlankMP3 []byte

// Static API descriptors served by /api/list.

//go:embed resource/api/ms-api-edge.json
var APIDescriptorEdge []byte

//go:embed resource/api/ms-api-subscribe.json
var APIDescriptorSubscribe []byte
