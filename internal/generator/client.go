package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client calls Gemini once per Tailor call. It never retries: every call is
// paid for with a credit.
type Client struct {
	gen   contentGenerator
	model string
	tmpl  *Template
}

// New builds the client once at startup. model is pinned; rotate it through
// configuration (see cmd/models), never per request.
func New(ctx context.Context, apiKey, model string, tmpl *Template) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Client{gen: gc.Models, model: model, tmpl: tmpl}, nil
}

func (c *Client) Tailor(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	prompt, err := c.tmpl.Render(req)
	if err != nil {
		return models.GenerationResult{}, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(c.tmpl.Temperature),
	}
	if c.tmpl.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = c.tmpl.MaxOutputTokens
	}

	resp, err := c.gen.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return models.GenerationResult{}, classify(err)
	}

	text := responseText(resp)
	if text == "" {
		return models.GenerationResult{}, fmt.Errorf("%w: no candidate text", apperr.ErrMalformedResponse)
	}
	res, err := parseResult(text)
	if err != nil {
		return models.GenerationResult{}, err
	}
	if res.Degraded {
		slog.WarnContext(ctx, "generator returned unstructured text", "model", c.model, "len", len(text))
	}
	return res, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// classify maps a transport or API error onto the generator taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		// transport failures, timeouts and anything unrecognised
		return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}

	switch {
	case apiErr.Code == 401 || apiErr.Code == 403,
		apiErr.Status == "UNAUTHENTICATED", apiErr.Status == "PERMISSION_DENIED",
		strings.Contains(apiErr.Message, "API key not valid"):
		return fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %v", apperr.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}
}

// Disabled stands in when no API key is configured; every call fails as
// Unauthorized so debits are refunded.
type Disabled struct{}

func (Disabled) Tailor(context.Context, models.GenerationRequest) (models.GenerationResult, error) {
	return models.GenerationResult{}, fmt.Errorf("%w: GEMINI_API_KEY not configured", apperr.ErrUnauthorized)
}
