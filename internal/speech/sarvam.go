package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every external call when the config does not
// override it. On timeout the caller degrades per the turn failure policy.
const DefaultTimeout = 15 * time.Second

// Sarvam model identifiers.
const (
	sttModel    = "saarika:v2.5"
	ttsSpeaker  = "anushka"
	chatTempLow = 0.1
)

// SarvamClient talks to the Sarvam AI REST API.
//
// Endpoints used:
//   - POST /speech-to-text        (multipart audio upload)
//   - POST /text-to-speech        (JSON, base64 audio in response)
//   - POST /v1/chat/completions   (OpenAI-style, for extraction/localization)
type SarvamClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
}

// SarvamOption configures a SarvamClient.
type SarvamOption func(*SarvamClient)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) SarvamOption {
	return func(c *SarvamClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client (tests use
// httptest servers).
func WithHTTPClient(h *http.Client) SarvamOption {
	return func(c *SarvamClient) {
		c.http = h
	}
}

// NewSarvamClient creates a client for the given API base URL and key.
func NewSarvamClient(baseURL, apiKey string, opts ...SarvamOption) *SarvamClient {
	c := &SarvamClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe implements Client.
func (c *SarvamClient) Transcribe(ctx context.Context, audio []byte, languageCode string) (Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Transcript{}, fmt.Errorf("sarvam stt: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return Transcript{}, fmt.Errorf("sarvam stt: %w", err)
	}
	_ = mw.WriteField("model", sttModel)
	if languageCode != "" {
		_ = mw.WriteField("language_code", languageCode)
	}
	if err := mw.Close(); err != nil {
		return Transcript{}, fmt.Errorf("sarvam stt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech-to-text", &body)
	if err != nil {
		return Transcript{}, fmt.Errorf("sarvam stt: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("api-subscription-key", c.apiKey)

	var out struct {
		Transcript   string `json:"transcript"`
		LanguageCode string `json:"language_code"`
	}
	if err := c.do(req, &out); err != nil {
		return Transcript{}, fmt.Errorf("sarvam stt: %w", err)
	}
	return Transcript{Text: out.Transcript, LanguageCode: out.LanguageCode}, nil
}

// Synthesize implements Client.
func (c *SarvamClient) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := map[string]any{
		"text":                 text,
		"target_language_code": languageCode,
		"speaker":              ttsSpeaker,
		"enable_preprocessing": true,
	}
	req, err := c.jsonRequest(ctx, "/text-to-speech", payload)
	if err != nil {
		return nil, fmt.Errorf("sarvam tts: %w", err)
	}

	var out struct {
		Audios []string `json:"audios"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("sarvam tts: %w", err)
	}
	if len(out.Audios) == 0 {
		return nil, fmt.Errorf("sarvam tts: empty audio response")
	}
	audio, err := base64.StdEncoding.DecodeString(out.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("sarvam tts: decode audio: %w", err)
	}
	return audio, nil
}

// ExtractFieldValue implements Client.
func (c *SarvamClient) ExtractFieldValue(ctx context.Context, fieldLabel, userText, writeLanguage string) (string, error) {
	prompt := fmt.Sprintf(
		"Extract the value for this form field.\nField label: %s\nExpected language: %s\nUser text: %s\n\nOutput ONLY the extracted value. Nothing else.",
		fieldLabel, writeLanguage, userText,
	)
	return c.chat(ctx,
		"You are a precise form field extractor. Output only the extracted value.",
		prompt,
	)
}

// Localize implements Client.
func (c *SarvamClient) Localize(ctx context.Context, text, targetLanguage string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following form-filling instruction into %s. Keep it brief and natural. Output only the translation.\n\n%s",
		targetLanguage, text,
	)
	return c.chat(ctx,
		"You are a helpful assistant. Generate brief, natural instructions.",
		prompt,
	)
}

// chat runs a single-turn chat completion and returns the trimmed reply.
func (c *SarvamClient) chat(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := map[string]any{
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": chatTempLow,
	}
	req, err := c.jsonRequest(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return "", fmt.Errorf("sarvam chat: %w", err)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("sarvam chat: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("sarvam chat: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *SarvamClient) jsonRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-subscription-key", c.apiKey)
	return req, nil
}

func (c *SarvamClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
