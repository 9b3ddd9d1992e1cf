package voices

import (
	"reflect"
	"testing"
)

func testVoice(shortName, locale string, styles ...string) *Voice {
	return &Voice{
		Name:      "Microsoft Server Speech Text to Speech Voice (" + locale + ", " + shortName + ")",
		ShortName: shortName,
		Locale:    locale,
		StyleList: styles,
		VoiceType: "Neural",
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog([]*Voice{
		testVoice("zh-CN-XiaoxiaoNeural", "zh-CN", "chat", "newscast"),
		testVoice("zh-CN-YunxiNeural", "zh-CN"),
		testVoice("en-US-JennyNeural", "en-US", "chat"),
	})

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	v, ok := c.Get("zh-CN-XiaoxiaoNeural")
	if !ok {
		t.Fatal("Get(zh-CN-XiaoxiaoNeural) not found")
	}
	if got := v.Styles(); !reflect.DeepEqual(got, []string{"chat", "newscast"}) {
		t.Errorf("Styles() = %v", got)
	}
	if c.Has("zh-CN-MissingNeural") {
		t.Error("Has() true for absent voice")
	}
	if got := len(c.ByLocale("zh-CN")); got != 2 {
		t.Errorf("ByLocale(zh-CN) has %d voices, want 2", got)
	}
	want := []string{"en-US-JennyNeural", "zh-CN-XiaoxiaoNeural", "zh-CN-YunxiNeural"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestIntersect(t *testing.T) {
	a := NewCatalog([]*Voice{
		testVoice("zh-CN-XiaoxiaoNeural", "zh-CN"),
		testVoice("en-US-JennyNeural", "en-US"),
		testVoice("ja-JP-NanamiNeural", "ja-JP"),
	})
	b := NewCatalog([]*Voice{
		testVoice("zh-CN-XiaoxiaoNeural", "zh-CN"),
		testVoice("ja-JP-NanamiNeural", "ja-JP"),
	})

	got := Intersect(a, b).Names()
	want := []string{"ja-JP-NanamiNeural", "zh-CN-XiaoxiaoNeural"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Intersect = %v, want %v", got, want)
	}

	if n := Intersect(a).Len(); n != 3 {
		t.Errorf("single-catalog intersection lost voices, got %d", n)
	}
	if n := Intersect().Len(); n != 0 {
		t.Errorf("empty intersection = %d voices", n)
	}
}

func TestEdgeVoiceStylesAndDesc(t *testing.T) {
	v := &Voice{
		ShortName:    "en-US-AriaNeural",
		Locale:       "en-US",
		FriendlyName: "Microsoft Aria Online (Natural) - English (United States)",
		VoiceTag:     map[string][]string{"ContentCategories": {"News", "Novel"}},
	}
	if got := v.Styles(); !reflect.DeepEqual(got, []string{"News", "Novel"}) {
		t.Errorf("Styles() = %v", got)
	}
	if got := v.Desc(); got != v.FriendlyName {
		t.Errorf("Desc() = %q", got)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{"not":"a list"}`)); err == nil {
		t.Fatal("Parse accepted a non-array document")
	}
	list, err := Parse([]byte(`[{"ShortName":"zh-CN-XiaoxiaoNeural","Locale":"zh-CN"}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(list) != 1 || list[0].ShortName != "zh-CN-XiaoxiaoNeural" {
		t.Errorf("Parse = %+v", list)
	}
}
