package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/ratelimit"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/validate"
)

const (
	textModel  = "gemini-3-flash-preview"
	imageModel = "gemini-2.5-flash-image"

	// Generation quality over latency for legal analysis.
	thinkingBudget = 12000
)

// ResearchResult is a research answer with its web citations.
type ResearchResult struct {
	Text    string       `json:"text"`
	Sources []api.Source `json:"sources"`
}

// CounselService is the AI desk: document auditing, legal research,
// drafting, intake summaries and thematic imagery. Every externally
// triggered call burns quota on the AI-generation limiter, keyed by the
// requesting admin.
type CounselService struct {
	ai      *api.GenAI
	limiter ratelimit.Limiter
	log     zerolog.Logger
}

// NewCounsel creates the AI desk service.
func NewCounsel(ai *api.GenAI, limiter ratelimit.Limiter, log zerolog.Logger) *CounselService {
	return &CounselService{ai: ai, limiter: limiter, log: log}
}

// AuditDocument reviews a photographed legal document for red flags.
// imageDataURL must be a base64 data URL of the page photo.
func (c *CounselService) AuditDocument(ctx context.Context, actorKey, imageDataURL string) (string, error) {
	if !c.limiter.IsAllowed(actorKey) {
		return "", ErrThrottled
	}
	if !validate.IsValidBase64(imageDataURL) {
		return "", fmt.Errorf("document image must be a base64 data URL: %w", ErrInvalidInput)
	}
	mime, payload := splitDataURL(imageDataURL)

	res, err := c.ai.Generate(ctx, textModel, []api.Part{
		api.ImagePart(mime, payload),
		api.TextPart("ในฐานะทนายความผู้เชี่ยวชาญ กรุณาวิเคราะห์เอกสารกฎหมายในภาพนี้อย่างละเอียด: ระบุจุดที่เสียเปรียบหรือจุดเสี่ยง (Red Flags), ข้อควรระวังสำหรับลูกความ, และสรุปสาระสำคัญเป็นข้อๆ โดยใช้ภาษาไทยที่สุภาพและเป็นทางการ"),
	}, api.GenerateOptions{ThinkingBudget: thinkingBudget})
	if err != nil {
		c.log.Warn().Err(err).Msg("document audit failed")
		return "", err
	}
	if res.Text == "" {
		return "ไม่สามารถวิเคราะห์เอกสารได้ในขณะนี้", nil
	}
	return res.Text, nil
}

// Research answers a Thai legal research question with web-search
// grounding. When the search-assisted call hits the provider's quota it
// falls back to a plain generation from the model's own knowledge.
func (c *CounselService) Research(ctx context.Context, actorKey, topic string) (ResearchResult, error) {
	if !c.limiter.IsAllowed(actorKey) {
		return ResearchResult{}, ErrThrottled
	}
	prompt := fmt.Sprintf("วิจัยประเด็นข้อกฎหมายในประเทศไทยที่เกี่ยวกับ: %q โดยสรุปเป็นหัวข้อที่ชัดเจน เข้าใจง่าย พร้อมระบุมาตราทางกฎหมายหรือแนวคำพิพากษาที่เกี่ยวข้องหากมีข้อมูลเชิงลึก", topic)

	res, err := c.ai.Generate(ctx, textModel, []api.Part{api.TextPart(prompt)},
		api.GenerateOptions{WebSearch: true, ThinkingBudget: thinkingBudget})
	if err == nil {
		return ResearchResult{Text: res.Text, Sources: res.Sources}, nil
	}
	if !errors.Is(err, api.ErrRateLimited) {
		return ResearchResult{}, err
	}

	c.log.Warn().Err(err).Msg("grounded research throttled upstream, retrying without search")
	fallback, err := c.ai.Generate(ctx, textModel, []api.Part{
		api.TextPart(prompt + " (โปรดสรุปจากฐานความรู้เดิมของคุณ เนื่องจากระบบค้นหาออนไลน์ติดข้อจำกัดชั่วคราว)"),
	}, api.GenerateOptions{})
	if err != nil {
		return ResearchResult{}, err
	}
	return ResearchResult{Text: fallback.Text}, nil
}

// Draft produces a formal Thai legal document of the requested type.
func (c *CounselService) Draft(ctx context.Context, actorKey, docType, details string) (string, error) {
	if !c.limiter.IsAllowed(actorKey) {
		return "", ErrThrottled
	}
	prompt := fmt.Sprintf("กรุณาร่างเอกสารประเภท %q โดยใช้รายละเอียดต่อไปนี้: %q \n\nข้อกำหนด: 1. ใช้ภาษากฎหมายไทยที่ถูกต้องและเป็นทางการ 2. แบ่งหัวข้อให้ชัดเจน 3. ระบุข้อกำหนดมาตรฐานที่จำเป็นสำหรับเอกสารประเภทนี้ 4. มีช่องว่างสำหรับลงชื่อพยานและคู่สัญญา", docType, details)

	res, err := c.ai.Generate(ctx, textModel, []api.Part{api.TextPart(prompt)},
		api.GenerateOptions{ThinkingBudget: thinkingBudget})
	if err != nil {
		return "", err
	}
	if res.Text == "" {
		return "การร่างเอกสารล้มเหลว กรุณาลองใหม่อีกครั้ง", nil
	}
	return res.Text, nil
}

// Summarize condenses intake details into two sentences. It is internal
// (called during lead creation), so it bypasses the AI limiter; its cost is
// bounded by the contact-form limiter upstream.
func (c *CounselService) Summarize(ctx context.Context, details string) (string, error) {
	res, err := c.ai.Generate(ctx, textModel, []api.Part{
		api.TextPart("สรุปสั้นๆ 2 ประโยค: " + details),
	}, api.GenerateOptions{})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ThematicImage generates site imagery in the firm's visual style,
// returned as a data URL.
func (c *CounselService) ThematicImage(ctx context.Context, actorKey, prompt string) (string, error) {
	if !c.limiter.IsAllowed(actorKey) {
		return "", ErrThrottled
	}
	res, err := c.ai.Generate(ctx, imageModel, []api.Part{
		api.TextPart("Professional high-end legal photography, luxury law office style: " + prompt),
	}, api.GenerateOptions{})
	if err != nil {
		return "", err
	}
	if res.Image == nil {
		return "", fmt.Errorf("model returned no image")
	}
	return "data:" + res.Image.MIMEType + ";base64," + res.Image.Data, nil
}

// splitDataURL separates "data:<mime>;base64,<payload>". Callers validate
// the shape first.
func splitDataURL(dataURL string) (mime, payload string) {
	rest := strings.TrimPrefix(dataURL, "data:")
	mime, rest, _ = strings.Cut(rest, ";base64,")
	return mime, rest
}
