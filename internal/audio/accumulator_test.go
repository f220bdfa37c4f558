package audio

import (
	"bytes"
	"errors"
	"testing"
)

func testConfig() Config {
	return Config{
		SampleRate:                  16000,
		Channels:                    1,
		SampleWidth:                 2,
		MaxAudioDurationSeconds:     1.0,
		TranscriptionIntervalChunks: 3,
	}
}

func pcmOfDuration(cfg Config, seconds float64) []byte {
	n := int(seconds * cfg.bytesPerSecond())
	return bytes.Repeat([]byte{0x01, 0x02}, n/2)
}

func TestAppendTranscriptionInterval(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)
	chunk := pcmOfDuration(cfg, 0.1)

	var transcribeFlags []bool
	for i := 0; i < 6; i++ {
		tr, _, _ := a.Append(chunk)
		transcribeFlags = append(transcribeFlags, tr)
	}

	want := []bool{false, false, true, false, false, true}
	for i, w := range want {
		if transcribeFlags[i] != w {
			t.Fatalf("chunk %d: should_transcribe = %v, want %v", i+1, transcribeFlags[i], w)
		}
	}
}

func TestAppendTrimTrigger(t *testing.T) {
	cfg := testConfig() // 1s cap
	a := New(cfg)
	chunk := pcmOfDuration(cfg, 0.5)

	_, trim1, _ := a.Append(chunk) // 0.5s
	if trim1 {
		t.Fatalf("should_trim after 1st chunk = true, want false")
	}
	_, trim2, _ := a.Append(chunk) // 1.0s, not yet over cap
	if trim2 {
		t.Fatalf("should_trim after 2nd chunk = true, want false")
	}
	_, trim3, _ := a.Append(chunk) // 1.5s, over cap with 3 chunks retained
	if !trim3 {
		t.Fatalf("should_trim after 3rd chunk = false, want true")
	}
}

func TestTrimInvariants(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)
	chunk := pcmOfDuration(cfg, 0.5)

	for i := 0; i < 3; i++ {
		a.Append(chunk)
	}
	a.Trim()

	if d := a.DurationSeconds(); d > cfg.MaxAudioDurationSeconds+1e-9 {
		t.Fatalf("duration after trim = %.3f, want <= %.3f", d, cfg.MaxAudioDurationSeconds)
	}
	if len(a.chunks) < 1 {
		t.Fatalf("trim removed all chunks, at least one must remain")
	}
}

func TestTrimNeverBelowOneChunk(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAudioDurationSeconds = 0.01 // tiny cap, single big chunk still exceeds it
	a := New(cfg)
	a.Append(pcmOfDuration(testConfig(), 2.0))
	a.Trim()

	if len(a.chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1 (trim must never remove the last chunk)", len(a.chunks))
	}
}

func TestSnapshotIsWAVFramedAndIndependent(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)
	a.Append(pcmOfDuration(cfg, 0.2))

	snap := a.Snapshot()
	if !isWAV(snap) {
		t.Fatalf("snapshot is not WAV-framed")
	}
	pcm, ok := parseWAVData(snap)
	if !ok {
		t.Fatalf("snapshot WAV data chunk not found")
	}
	origLen := len(pcm)

	a.Append(pcmOfDuration(cfg, 0.2))
	if len(pcm) != origLen {
		t.Fatalf("snapshot payload mutated by subsequent append")
	}
	snap2 := a.Snapshot()
	pcm2, _ := parseWAVData(snap2)
	if len(pcm2) == origLen {
		t.Fatalf("second snapshot did not reflect the new append")
	}
}

func TestAppendWAVFramedInput(t *testing.T) {
	cfg := testConfig()
	raw := pcmOfDuration(cfg, 0.1)
	wav := encodeWAV(raw, cfg.SampleRate, cfg.Channels, cfg.SampleWidth)

	a := New(cfg)
	a.Append(wav)

	if a.totalBytes != len(raw) {
		t.Fatalf("totalBytes = %d, want %d (WAV payload should be unwrapped)", a.totalBytes, len(raw))
	}
}

func TestAppendMalformedWAVFallsBackToRaw(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)
	malformed := append([]byte("RIFF"), []byte{0, 0, 0, 0}...) // too short to parse
	a.Append(malformed)

	if a.totalBytes != len(malformed) {
		t.Fatalf("totalBytes = %d, want %d (malformed WAV should fall back to raw)", a.totalBytes, len(malformed))
	}
}

func TestAppendRejectsMismatchedWAVFormat(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)
	raw := pcmOfDuration(cfg, 0.1)
	wav := encodeWAV(raw, 44100, 2, cfg.SampleWidth) // wrong sample rate and channel count

	_, _, err := a.Append(wav)
	if err == nil {
		t.Fatalf("Append() err = nil, want ErrFormatMismatch for a 44.1kHz/stereo WAV frame")
	}
	if !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("Append() err = %v, want it to wrap ErrFormatMismatch", err)
	}
	if a.totalBytes != 0 || a.chunkCount != 0 || len(a.chunks) != 0 {
		t.Fatalf("rejected frame mutated accumulator state: totalBytes=%d chunkCount=%d len(chunks)=%d", a.totalBytes, a.chunkCount, len(a.chunks))
	}
}

func TestMaxChunksPerSessionEvictsOldestHalf(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAudioDurationSeconds = 1000 // large enough that the duration trim never fires
	cfg.MaxChunksPerSession = 4
	a := New(cfg)
	tiny := pcmOfDuration(cfg, 0.01)

	for i := 0; i < 6; i++ {
		a.Append(tiny)
	}

	if len(a.chunks) >= cfg.MaxChunksPerSession {
		t.Fatalf("len(chunks) = %d, want < %d after eviction", len(a.chunks), cfg.MaxChunksPerSession)
	}
	if a.ChunkCount() != 6 {
		t.Fatalf("ChunkCount() = %d, want 6 (lifetime counter must keep growing across eviction)", a.ChunkCount())
	}
}

func TestMaxChunksPerSessionZeroDisablesCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAudioDurationSeconds = 1000
	cfg.MaxChunksPerSession = 0
	a := New(cfg)
	tiny := pcmOfDuration(cfg, 0.01)

	for i := 0; i < 50; i++ {
		a.Append(tiny)
	}

	if len(a.chunks) != 50 {
		t.Fatalf("len(chunks) = %d, want 50 (cap disabled, nothing should be evicted)", len(a.chunks))
	}
}

func TestTotalBytesInvariant(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)
	for i := 0; i < 5; i++ {
		a.Append(pcmOfDuration(cfg, 0.3))
		a.Trim()

		sum := 0
		for _, c := range a.chunks {
			sum += len(c)
		}
		if sum != a.totalBytes {
			t.Fatalf("totalBytes = %d, sum(len(chunks)) = %d", a.totalBytes, sum)
		}
	}
}
