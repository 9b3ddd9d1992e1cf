package voices

import (
	"encoding/json"
	"fmt"
)

// Voice is one entry from a Microsoft voice-list document. The subscription
// and Edge endpoints return different shapes; this struct is the union, with
// the fields each variant lacks left zero.
type Voice struct {
	Name            string   `json:"Name"`
	ShortName       string   `json:"ShortName"`
	Gender          string   `json:"Gender"`
	Locale          string   `json:"Locale"`
	Status          string   `json:"Status"`
	DisplayName     string   `json:"DisplayName,omitempty"`
	LocalName       string   `json:"LocalName,omitempty"`
	LocaleName      string   `json:"LocaleName,omitempty"`
	StyleList       []string `json:"StyleList,omitempty"`
	SampleRateHertz string   `json:"SampleRateHertz,omitempty"`
	VoiceType       string   `json:"VoiceType,omitempty"`
	RolePlayList    []string `json:"RolePlayList,omitempty"`
	WordsPerMinute  string   `json:"WordsPerMinute,omitempty"`

	// Edge list only.
	FriendlyName   string              `json:"FriendlyName,omitempty"`
	SuggestedCodec string              `json:"SuggestedCodec,omitempty"`
	VoiceTag       map[string][]string `json:"VoiceTag,omitempty"`
}

// Styles returns the advertised style list. Edge voices carry no style list;
// their content categories stand in for it.
func (v *Voice) Styles() []string {
	if len(v.StyleList) > 0 {
		return v.StyleList
	}
	if v.VoiceTag != nil {
		return v.VoiceTag["ContentCategories"]
	}
	return nil
}

// Desc is the human-readable description shown in catalog listings.
func (v *Voice) Desc() string {
	if v.FriendlyName != "" {
		return v.FriendlyName
	}
	if v.VoiceType == "Neural" {
		return fmt.Sprintf("Microsoft %s Online (Natural) - %s", v.DisplayName, v.LocalName)
	}
	return fmt.Sprintf("Microsoft %s Online - %s", v.DisplayName, v.LocalName)
}

// Parse decodes a voice-list JSON document (either endpoint shape).
func Parse(data []byte) ([]*Voice, error) {
	var list []*Voice
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode voice list: %w", err)
	}
	return list, nil
}
