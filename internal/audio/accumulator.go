// Package audio owns the per-session raw-PCM accumulation buffer. It
// appends incoming chunks, reports when a re-transcription pass or a trim
// is due, and produces self-contained WAV snapshots for the ASR invoker.
package audio

import "sync"

// Config mirrors the per-session audio parameters frozen at session
// creation.
type Config struct {
	SampleRate                  int // Hz, e.g. 16000
	Channels                    int // e.g. 1 (mono)
	SampleWidth                 int // bytes per sample, e.g. 2 (16-bit)
	MaxAudioDurationSeconds     float64
	TranscriptionIntervalChunks int
	MaxChunksPerSession         int // 0 disables the cap
}

// MaxAudioBytes returns the byte-length cap derived from
// MaxAudioDurationSeconds and the PCM format.
func (c Config) MaxAudioBytes() int {
	return int(c.MaxAudioDurationSeconds * float64(c.SampleRate*c.Channels*c.SampleWidth))
}

func (c Config) bytesPerSecond() float64 {
	return float64(c.SampleRate * c.Channels * c.SampleWidth)
}

// Accumulator owns the ordered sequence of retained PCM chunks for one
// session. It is owned exclusively by that session's goroutine; the mutex
// guards against accidental concurrent access rather than enabling it.
type Accumulator struct {
	cfg Config

	mu         sync.Mutex
	chunks     [][]byte
	totalBytes int
	chunkCount int
}

// New returns an empty Accumulator for the given config.
func New(cfg Config) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// Append adds a chunk (WAV-framed or raw PCM — WAV is unwrapped to its PCM
// payload before retention) and reports whether this append should trigger
// a re-transcription pass and/or a trim. A WAV-framed chunk whose format
// doesn't match cfg is rejected with ErrFormatMismatch and left
// unretained; the accumulator's state is unchanged.
func (a *Accumulator) Append(raw []byte) (shouldTranscribe, shouldTrim bool, err error) {
	if err := checkFormat(raw, a.cfg); err != nil {
		return false, false, err
	}
	pcm := extractPCM(raw)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.chunks = append(a.chunks, pcm)
	a.totalBytes += len(pcm)
	a.chunkCount++

	interval := a.cfg.TranscriptionIntervalChunks
	if interval <= 0 {
		interval = 1
	}
	shouldTranscribe = a.chunkCount%interval == 0
	shouldTrim = a.totalBytes > a.cfg.MaxAudioBytes() && len(a.chunks) > 1

	// In-memory chunk cap is independent of the duration-based trim above
	// and of chunkCount, which keeps counting for the session's lifetime:
	// this only bounds how many chunks are retained in the slice.
	if a.cfg.MaxChunksPerSession > 0 && len(a.chunks) >= a.cfg.MaxChunksPerSession {
		a.evictOldestHalf()
	}
	return shouldTranscribe, shouldTrim, nil
}

func (a *Accumulator) evictOldestHalf() {
	half := len(a.chunks) / 2
	if half == 0 {
		return
	}
	for _, c := range a.chunks[:half] {
		a.totalBytes -= len(c)
	}
	a.chunks = a.chunks[half:]
}

// Snapshot returns a WAV-framed copy of all currently retained PCM. The
// returned bytes are independent of subsequent Append/Trim calls.
func (a *Accumulator) Snapshot() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := 0
	for _, c := range a.chunks {
		total += len(c)
	}
	pcm := make([]byte, 0, total)
	for _, c := range a.chunks {
		pcm = append(pcm, c...)
	}
	return encodeWAV(pcm, a.cfg.SampleRate, a.cfg.Channels, a.cfg.SampleWidth)
}

// Trim removes chunks from the front until total_bytes <= max_audio_bytes
// or only one chunk remains. It is the only operation that reduces buffer
// size.
func (a *Accumulator) Trim() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for a.totalBytes > a.cfg.MaxAudioBytes() && len(a.chunks) > 1 {
		removed := a.chunks[0]
		a.chunks = a.chunks[1:]
		a.totalBytes -= len(removed)
	}
}

// DurationSeconds returns total_bytes / (sampleRate * channels * sampleWidth).
func (a *Accumulator) DurationSeconds() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.totalBytes) / a.cfg.bytesPerSecond()
}

// ChunkCount returns the number of chunks appended so far.
func (a *Accumulator) ChunkCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chunkCount
}

// ChunksRemaining returns how many of transcription_interval_chunks chunks
// remain before the next re-transcription pass triggers. It returns 0 when
// the latest append itself triggered a pass (no chunks pending since it),
// and when no interval is configured.
func (a *Accumulator) ChunksRemaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	interval := a.cfg.TranscriptionIntervalChunks
	if interval <= 0 {
		return 0
	}
	rem := interval - (a.chunkCount % interval)
	if rem == interval {
		return 0
	}
	return rem
}
