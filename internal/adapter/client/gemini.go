package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"twin-core/internal/config"
	"twin-core/internal/domain/entity"

	"google.golang.org/genai"
)

var ErrMissingCredentials = errors.New("gemini: set GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT")

// GeminiGenerator answers as the candidate, grounded on the retrieved snippets.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	persona     string
	temperature float32
}

// NewGenAIClient builds the shared SDK client once at startup. An API key selects the
// Gemini API backend, otherwise Vertex AI is used with project and location.
func NewGenAIClient(ctx context.Context, cfg config.GenAI) (*genai.Client, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, ErrMissingCredentials
	}
	return genai.NewClient(ctx, cc)
}

func NewGeminiGenerator(c *genai.Client, model string, profile *config.Profile, temperature float32) *GeminiGenerator {
	return &GeminiGenerator{
		client:      c,
		model:       model,
		persona:     BuildPersona(profile),
		temperature: temperature,
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, query string, bundle entity.ContextBundle, history []entity.Message) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.RoleUser
		if m.Role == "assistant" || m.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(query, genai.RoleUser))

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.systemPrompt(bundle), genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", providerError(err)
	}
	return strings.TrimSpace(result.Text()), nil
}

// providerError tags rate limits, timeouts and server-side API failures as
// entity.ErrProviderUnavailable.
func providerError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %w", entity.ErrProviderUnavailable, err)
	}
	return err
}

func (g *GeminiGenerator) systemPrompt(bundle entity.ContextBundle) string {
	var b strings.Builder
	b.WriteString(g.persona)
	fmt.Fprintf(&b, "\nQuestion category: %s\n", bundle.Category)
	if len(bundle.Snippets) == 0 {
		b.WriteString("No profile excerpts matched this question. Answer from the summary above and say so if you are unsure.\n")
		return b.String()
	}
	b.WriteString("Relevant profile excerpts:\n")
	for i, s := range bundle.Snippets {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, s.Source, s.Content)
	}
	return b.String()
}

// BuildPersona renders the fixed part of the system prompt from the profile.
func BuildPersona(p *config.Profile) string {
	if p == nil {
		return "You are a job candidate answering interview questions in the first person."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s", p.Name)
	if p.Title != "" {
		fmt.Fprintf(&b, ", %s", p.Title)
	}
	b.WriteString(". Answer interview questions in the first person, concisely and truthfully, using only the facts provided.\n")
	if p.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", strings.TrimSpace(p.Summary))
	}
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	return b.String()
}
