package audio

import "strings"

// Format identifies a target container/codec for encoded output.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatOpus Format = "opus"
	FormatAAC  Format = "aac"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"
	FormatPCM  Format = "pcm"
)

// ParseFormat maps a request's response_format value to a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMP3:
		return FormatMP3, true
	case FormatOpus:
		return FormatOpus, true
	case FormatAAC:
		return FormatAAC, true
	case FormatFLAC:
		return FormatFLAC, true
	case FormatWAV:
		return FormatWAV, true
	case FormatPCM:
		return FormatPCM, true
	default:
		return "", false
	}
}

// SupportedFormats lists the accepted response_format values.
func SupportedFormats() []string {
	return []string{"mp3", "opus", "aac", "flac", "wav", "pcm"}
}

// ContentType returns the MIME type clients should see for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatOpus:
		return "audio/ogg"
	case FormatAAC:
		return "audio/aac"
	case FormatFLAC:
		return "audio/flac"
	case FormatWAV:
		return "audio/wav"
	case FormatPCM:
		return "audio/pcm"
	default:
		return "application/octet-stream"
	}
}
