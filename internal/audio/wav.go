package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// riffTag is the four-byte ASCII marker that identifies a WAV container.
const riffTag = "RIFF"

// ErrFormatMismatch is returned when a WAV-framed frame's "fmt " subchunk
// doesn't match the session's configured sample rate, channel count, or
// bit depth. This is a client protocol error: the core rejects the frame
// rather than attempting conversion.
var ErrFormatMismatch = errors.New("audio format mismatch")

// isWAV reports whether raw begins with a RIFF header.
func isWAV(raw []byte) bool {
	return len(raw) >= 4 && string(raw[:4]) == riffTag
}

// extractPCM returns the PCM payload of a WAV-framed buffer, or raw itself
// if it isn't WAV-framed. Parse failures fall back to the raw bytes rather
// than propagating an error.
func extractPCM(raw []byte) []byte {
	if !isWAV(raw) {
		return raw
	}
	pcm, ok := parseWAVData(raw)
	if !ok {
		return raw
	}
	return pcm
}

// parseWAVData walks RIFF sub-chunks looking for "data" and returns its
// payload. It tolerates any chunk ordering and odd-length padding; ok is
// false unless a "fmt " chunk is present as well.
func parseWAVData(raw []byte) ([]byte, bool) {
	_, data, ok := walkWAVChunks(raw)
	return data, ok
}

// waveFormat is the subset of a WAV "fmt " subchunk needed to validate
// the stream against a session's configured audio parameters.
type waveFormat struct {
	channels      int
	sampleRate    int
	bitsPerSample int
}

// parseWAVFormat walks RIFF sub-chunks looking for "fmt " and returns its
// parsed fields.
func parseWAVFormat(raw []byte) (waveFormat, bool) {
	format, _, ok := walkWAVChunks(raw)
	return format, ok
}

// walkWAVChunks makes a single pass over raw's RIFF sub-chunks, collecting
// both the "fmt " fields and the "data" payload regardless of chunk
// order. ok is true only when both a "fmt " and a "data" chunk were found.
func walkWAVChunks(raw []byte) (format waveFormat, data []byte, ok bool) {
	if len(raw) < 12 || string(raw[8:12]) != "WAVE" {
		return waveFormat{}, nil, false
	}
	var formatOK, dataOK bool
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		pos += 8
		if size < 0 || pos+size > len(raw) {
			break
		}
		switch {
		case id == "fmt " && size >= 16:
			format = waveFormat{
				channels:      int(binary.LittleEndian.Uint16(raw[pos+2 : pos+4])),
				sampleRate:    int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8])),
				bitsPerSample: int(binary.LittleEndian.Uint16(raw[pos+14 : pos+16])),
			}
			formatOK = true
		case id == "data":
			data = raw[pos : pos+size]
			dataOK = true
		}
		pos += size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}
	return format, data, formatOK && dataOK
}

// checkFormat rejects a WAV-framed frame whose "fmt " subchunk disagrees
// with cfg's sample rate, channel count, or bit depth. Raw (non-WAV) PCM
// has no self-describing format to check and is assumed to already match
// the negotiated wire format: there is nothing to validate.
func checkFormat(raw []byte, cfg Config) error {
	if !isWAV(raw) {
		return nil
	}
	format, ok := parseWAVFormat(raw)
	if !ok {
		return nil // malformed/unparsable fmt chunk: fall back to raw-PCM handling
	}
	wantBits := cfg.SampleWidth * 8
	if format.sampleRate != cfg.SampleRate || format.channels != cfg.Channels || format.bitsPerSample != wantBits {
		return fmt.Errorf("%w: got %dHz/%dch/%dbit, want %dHz/%dch/%dbit",
			ErrFormatMismatch, format.sampleRate, format.channels, format.bitsPerSample,
			cfg.SampleRate, cfg.Channels, wantBits)
	}
	return nil
}

// encodeWAV wraps pcm in a canonical 44-byte-header RIFF/WAVE container
// describing sampleRate/channels/sampleWidth (bytes per sample).
func encodeWAV(pcm []byte, sampleRate, channels, sampleWidth int) []byte {
	byteRate := sampleRate * channels * sampleWidth
	blockAlign := channels * sampleWidth
	bitsPerSample := sampleWidth * 8

	var b bytes.Buffer
	b.Grow(44 + len(pcm))

	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(byteRate))
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)

	return b.Bytes()
}
