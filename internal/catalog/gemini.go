package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/speak2fill/speak2fill/internal/form"
)

// defaultModel is used when the config does not name one.
const defaultModel = "gemini-2.5-flash-lite"

// GeminiBuilder infers fillable fields from OCR text boxes via the Gemini
// generateContent API.
type GeminiBuilder struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	timeout time.Duration
}

// GeminiOption configures a GeminiBuilder.
type GeminiOption func(*GeminiBuilder)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(b *GeminiBuilder) {
		if model != "" {
			b.model = model
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) GeminiOption {
	return func(b *GeminiBuilder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) GeminiOption {
	return func(b *GeminiBuilder) {
		b.http = h
	}
}

// NewGeminiBuilder creates a builder for the given API base URL and key.
func NewGeminiBuilder(baseURL, apiKey string, opts ...GeminiOption) *GeminiBuilder {
	b := &GeminiBuilder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   defaultModel,
		http:    &http.Client{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// inferredField is the shape the model is asked to return per field.
// Field ids are assigned locally, not by the model.
type inferredField struct {
	Label         string             `json:"label"`
	BBox          form.BBox          `json:"bbox"`
	InputMode     form.InputMode     `json:"input_mode"`
	WriteLanguage form.WriteLanguage `json:"write_language"`
}

// BuildCatalog implements Builder.
func (b *GeminiBuilder) BuildCatalog(ctx context.Context, boxes []TextBox, imageWidth, imageHeight int) ([]form.FormField, error) {
	reply, err := b.generate(ctx, buildPrompt(boxes, imageWidth, imageHeight))
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	raw, err := extractJSONArray(reply)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	var inferred []inferredField
	if err := json.Unmarshal([]byte(raw), &inferred); err != nil {
		return nil, fmt.Errorf("build catalog: parse fields: %w", err)
	}

	fields := make([]form.FormField, 0, len(inferred))
	for i, f := range inferred {
		fields = append(fields, form.FormField{
			FieldID:       fieldID(f.Label, i),
			Label:         f.Label,
			BBox:          f.BBox,
			InputMode:     f.InputMode,
			WriteLanguage: f.WriteLanguage,
		})
	}
	fields = form.NormalizeCatalog(fields)

	if err := form.ValidateCatalog(fields); err != nil {
		return nil, fmt.Errorf("build catalog: inference returned invalid catalog: %w", err)
	}
	return fields, nil
}

// Warmup implements Builder with a tiny one-token request.
func (b *GeminiBuilder) Warmup(ctx context.Context) error {
	_, err := b.generate(ctx, "Reply with the single word: ok")
	if err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	return nil
}

// buildPrompt renders the OCR boxes into the field-inference prompt.
func buildPrompt(boxes []TextBox, imageWidth, imageHeight int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are analyzing a scanned form. Based on the OCR text below, identify ALL fillable fields that need user input.\n\n")
	fmt.Fprintf(&sb, "OCR Data (image dimensions: %dx%d):\n", imageWidth, imageHeight)
	for i, box := range boxes {
		fmt.Fprintf(&sb, "%d. '%s' (confidence: %.2f, bbox: %v)\n", i, box.Text, box.Score, box.BBox)
	}
	sb.WriteString(`
Rules:
1. EXCLUDE office-only fields (e.g., "For office use only", "Approval stamp")
2. EXCLUDE pre-filled system fields (e.g., form numbers, dates already filled)
3. For each user-fillable field, determine:
   - label: clear field name (e.g., "Name", "Date of Birth", "Address")
   - bbox: bounding box coordinates [x1, y1, x2, y2] where the user should write
   - input_mode: "voice" for text fields, "placeholder" for dates/signatures
   - write_language: "en" for English, "ml" for Malayalam/native, "numeric" for numbers

Return ONLY a valid JSON array (no markdown, no explanation).
`)
	return sb.String()
}

// fencedJSON matches a ```json ... ``` block; models ignore the "no
// markdown" instruction often enough that this is worth handling.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

// rawArray falls back to the outermost bracketed span.
var rawArray = regexp.MustCompile(`(?s)(\[.*\])`)

// extractJSONArray pulls the JSON array out of a model reply.
func extractJSONArray(reply string) (string, error) {
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		return m[1], nil
	}
	if m := rawArray.FindStringSubmatch(reply); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("no JSON array in model reply")
}

// fieldID derives a stable snake_case id from a label and its position.
func fieldID(label string, index int) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	slug := strings.Trim(sb.String(), "_")
	if slug == "" {
		slug = "field"
	}
	return fmt.Sprintf("%s_%d", slug, index)
}

// generate runs one generateContent call and returns the reply text.
func (b *GeminiBuilder) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.1,
			"maxOutputTokens": 2048,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", b.baseURL, b.model, b.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model reply")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
