package api

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "Hello", "Hello"},
		{"single decode", "Hello%20World", "Hello World"},
		{"double decode reaches fixed point", "Hello%2520World", "Hello World"},
		{"angle brackets escaped", "a<b>c", "a&lt;b&gt;c"},
		{"encoded brackets still escaped", "%3Cspeak%3E", "&lt;speak&gt;"},
		{"cjk punctuation", "你好，世界。真的吗？", "你好, 世界. 真的吗? "},
		{"cjk colon semicolon bang", "一：二；三！", "一: 二; 三! "},
		{"plus sign untouched", "a+b", "a+b"},
		{"invalid escape left alone", "100%zz", "100%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeText(tt.in); got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{"Hello%2520World", "a<b>，c", "５０％off", "？！。"}
	for _, in := range inputs {
		once := normalizeText(in)
		if twice := normalizeText(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func f(v float64) *float64 { return &v }

func TestRatePercent(t *testing.T) {
	tests := []struct {
		in   *float64
		want int
	}{
		{nil, 0},
		{f(0.0), -100},
		{f(1.0), 0},
		{f(1.5), 50},
		{f(3.0), 200},
		{f(9.9), 200},
		{f(-2.0), -100},
	}
	for _, tt := range tests {
		if got := ratePercent(tt.in); got != tt.want {
			t.Errorf("ratePercent(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPitchPercent(t *testing.T) {
	tests := []struct {
		in   *float64
		want int
	}{
		{nil, 0},
		{f(0.0), -50},
		{f(1.0), 0},
		{f(2.0), 50},
		{f(5.0), 50},
		{f(-1.0), -50},
	}
	for _, tt := range tests {
		if got := pitchPercent(tt.in); got != tt.want {
			t.Errorf("pitchPercent(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRatePitchCoercionIdempotent(t *testing.T) {
	// Re-mapping the normal-scale equivalent of an already-clamped output
	// must not drift.
	for _, rate := range []float64{0, 0.5, 1, 1.5, 3} {
		p := ratePercent(f(rate))
		back := float64(p+100) / 100
		if again := ratePercent(f(back)); again != p {
			t.Errorf("rate %v: first %d, second %d", rate, p, again)
		}
	}
	for _, pitch := range []float64{0, 0.5, 1, 2} {
		p := pitchPercent(f(pitch))
		back := float64(p+50) / 50
		if again := pitchPercent(f(back)); again != p {
			t.Errorf("pitch %v: first %d, second %d", pitch, p, again)
		}
	}
}
