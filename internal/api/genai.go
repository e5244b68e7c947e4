package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GenAI calls the hosted generative model API: text and multimodal prompts,
// optional web-search grounding, optional inline image output.
type GenAI struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewGenAI creates a generative AI client.
func NewGenAI(baseURL, apiKey string) *GenAI {
	return &GenAI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// Generation with a thinking budget routinely runs tens of
		// seconds.
		http: &http.Client{Timeout: 120 * time.Second},
	}
}

// Part is one element of a prompt: text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 payloads (document photos in, generated images
// out).
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// TextPart builds a text-only part.
func TextPart(text string) Part { return Part{Text: text} }

// ImagePart builds an inline image part from raw base64 data.
func ImagePart(mimeType, base64Data string) Part {
	return Part{InlineData: &InlineData{MIMEType: mimeType, Data: base64Data}}
}

// GenerateOptions tunes one call.
type GenerateOptions struct {
	// WebSearch enables the provider's search tool; results come back as
	// grounding sources.
	WebSearch bool
	// ThinkingBudget caps internal reasoning tokens. Zero leaves the
	// provider default.
	ThinkingBudget int
}

// Source is one grounding citation: a title/URI pair.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// GenerateResult is the flattened provider response.
type GenerateResult struct {
	Text    string
	Sources []Source
	// Image holds inline image output when the model produced one.
	Image *InlineData
}

type generateRequest struct {
	Contents []struct {
		Parts []Part `json:"parts"`
	} `json:"contents"`
	Tools            []map[string]any `json:"tools,omitempty"`
	GenerationConfig map[string]any   `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web *Source `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// Generate runs one model call.
func (c *GenAI) Generate(ctx context.Context, model string, parts []Part, opts GenerateOptions) (GenerateResult, error) {
	var req generateRequest
	req.Contents = append(req.Contents, struct {
		Parts []Part `json:"parts"`
	}{Parts: parts})
	if opts.WebSearch {
		req.Tools = append(req.Tools, map[string]any{"googleSearch": map[string]any{}})
	}
	if opts.ThinkingBudget > 0 {
		req.GenerationConfig = map[string]any{
			"thinkingConfig": map[string]any{"thinkingBudget": opts.ThinkingBudget},
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return GenerateResult{}, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return GenerateResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return GenerateResult{}, transportError("genai", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return GenerateResult{}, statusError("genai", resp.StatusCode)
	}

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return GenerateResult{}, fmt.Errorf("decode genai response: %w", err)
	}
	if len(body.Candidates) == 0 {
		return GenerateResult{}, nil
	}

	var result GenerateResult
	cand := body.Candidates[0]
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.InlineData != nil && result.Image == nil {
			result.Image = part.InlineData
		}
	}
	result.Text = text.String()
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		if chunk.Web != nil {
			src := *chunk.Web
			if src.Title == "" {
				src.Title = "แหล่งข้อมูลอ้างอิง"
			}
			result.Sources = append(result.Sources, src)
		}
	}
	return result, nil
}
