// Package asr is the ASR Invoker: a thin adapter that hands a WAV audio
// snapshot and a context prompt to an external ASR model over HTTP and
// returns a single transcript string.
//
// Callers get back an explicit Outcome: Silent (valid empty result),
// Ok(transcript), or Err, rather than mixing error returns with an
// ambiguous empty string for silence.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Kind distinguishes the three outcomes a transcription call can have.
type Kind int

const (
	// Silent means the ASR model ran successfully and returned no text —
	// a valid, distinguished outcome meaning "silence".
	Silent Kind = iota
	// Ok means the ASR model returned a non-empty transcript.
	Ok
	// Err means the call failed (transport error, timeout, non-2xx).
	Err
)

// Outcome is the result of one Transcribe call.
type Outcome struct {
	Kind Kind
	Text string
	Err  error
}

// Params are the beam/temperature/VAD parameters configured once at
// process start, not per call.
type Params struct {
	Beam         int
	Temperature  float64
	VADThreshold float64
}

// Client is an HTTP adapter to the external ASR model, built around a
// pre-framed WAV snapshot and an initial_prompt passed as request context.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Params  Params
}

// New returns a Client with a 30s timeout, configured with params fixed
// for the process lifetime.
func New(baseURL string, params Params) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Params:  params,
	}
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe sends a WAV-framed audio snapshot plus an optional initial
// prompt to the ASR model and returns a single concatenated transcript.
// Consecutive whitespace separating digits is stripped from the result.
func (c *Client) Transcribe(ctx context.Context, wav []byte, initialPrompt string) Outcome {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transcribe", bytes.NewReader(wav))
	if err != nil {
		return Outcome{Kind: Err, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "audio/wav")
	httpReq.Header.Set("X-Language", "ja")
	httpReq.Header.Set("X-Beam-Size", fmt.Sprintf("%d", c.Params.Beam))
	httpReq.Header.Set("X-Temperature", fmt.Sprintf("%g", c.Params.Temperature))
	httpReq.Header.Set("X-VAD-Threshold", fmt.Sprintf("%g", c.Params.VADThreshold))
	if initialPrompt != "" {
		httpReq.Header.Set("X-Initial-Prompt", initialPrompt)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return Outcome{Kind: Err, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Outcome{Kind: Err, Err: fmt.Errorf("asr status: %s", resp.Status)}
	}

	var parsed transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Outcome{Kind: Err, Err: fmt.Errorf("decode response: %w", err)}
	}

	text := stripDigitWhitespace(parsed.Text)
	if text == "" {
		return Outcome{Kind: Silent}
	}
	return Outcome{Kind: Ok, Text: text}
}

// stripDigitWhitespace removes whitespace runs that separate two ASCII
// digits, a common ASR artifact when reading out numbers.
func stripDigitWhitespace(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isSpace(r) && len(out) > 0 && isASCIIDigit(out[len(out)-1]) {
			j := i
			for j < len(runes) && isSpace(runes[j]) {
				j++
			}
			if j < len(runes) && isASCIIDigit(runes[j]) {
				i = j - 1
				continue
			}
		}
		out = append(out, r)
	}
	return string(out)
}

func isSpace(r rune) bool      { return r == ' ' || r == '\t' || r == '　' }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
