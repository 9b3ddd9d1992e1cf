package azure

// DefaultQuality is used when a request omits or misnames the output format.
const DefaultQuality = "audio-24khz-48kbitrate-mono-mp3"

// QualityList enumerates the output formats the speech websocket accepts,
// in the order the catalog endpoint reports them.
var QualityList = []string{
	"audio-16khz-128kbitrate-mono-mp3",
	"audio-16khz-16bit-32kbps-mono-opus",
	"audio-16khz-16kbps-mono-siren",
	"audio-16khz-32kbitrate-mono-mp3",
	"audio-16khz-64kbitrate-mono-mp3",
	"audio-24khz-160kbitrate-mono-mp3",
	"audio-24khz-16bit-24kbps-mono-opus",
	"audio-24khz-16bit-48kbps-mono-opus",
	"audio-24khz-48kbitrate-mono-mp3",
	"audio-24khz-96kbitrate-mono-mp3",
	"audio-48khz-192kbitrate-mono-mp3",
	"audio-48khz-96kbitrate-mono-mp3",
	"ogg-16khz-16bit-mono-opus",
	"ogg-24khz-16bit-mono-opus",
	"ogg-48khz-16bit-mono-opus",
	"raw-16khz-16bit-mono-pcm",
	"raw-16khz-16bit-mono-truesilk",
	"raw-24khz-16bit-mono-pcm",
	"raw-24khz-16bit-mono-truesilk",
	"raw-48khz-16bit-mono-pcm",
	"raw-8khz-16bit-mono-pcm",
	"raw-8khz-8bit-mono-alaw",
	"raw-8khz-8bit-mono-mulaw",
	"riff-16khz-16bit-mono-pcm",
	"riff-24khz-16bit-mono-pcm",
	"riff-48khz-16bit-mono-pcm",
	"riff-8khz-16bit-mono-pcm",
	"riff-8khz-8bit-mono-alaw",
	"riff-8khz-8bit-mono-mulaw",
	"webm-16khz-16bit-mono-opus",
	"webm-24khz-16bit-24kbps-mono-opus",
	"webm-24khz-16bit-mono-opus",
}

var qualitySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(QualityList))
	for _, q := range QualityList {
		m[q] = struct{}{}
	}
	return m
}()

// ValidQuality reports whether q is a known output format.
func ValidQuality(q string) bool {
	_, ok := qualitySet[q]
	return ok
}
