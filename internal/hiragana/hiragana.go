// Package hiragana adapts an external Japanese hiragana-normalization
// model (kanji/katakana -> hiragana reading) over HTTP. Like translation,
// this is an optional downstream stage applied after diff resolution; it
// never feeds back into diffing.
package hiragana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Converter renders text into its hiragana reading. An empty input
// returns an empty result with no request sent.
type Converter interface {
	ToHiragana(ctx context.Context, text string) (string, error)
}

// HTTPConverter calls a normalization service over HTTP.
type HTTPConverter struct {
	BaseURL    string
	HTTPClient *http.Client
}

type convertRequest struct {
	Text string `json:"text"`
}

type convertResponse struct {
	Hiragana string `json:"hiragana"`
}

// ToHiragana sends text to the normalization service and returns its
// hiragana reading.
func (h *HTTPConverter) ToHiragana(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}

	body, err := json.Marshal(convertRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/normalize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("normalization service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return result.Hiragana, nil
}
