package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	contentSourceLimit = 10
	defaultImagePrompt = "A calm, professional image with soft natural colors and peaceful scenery. NO TEXT, NO WORDS, NO LETTERS in the image, only visual elements."
)

var contentTypes = []string{
	"Create an educational post sharing 3-4 practical tips related to our services.",
	"Write a myth-busting post that addresses a common misconception in our field.",
	"Share a simple practice or technique people can try today.",
	"Explain one concept from our field in simple, relatable terms.",
	"Write a validating 'Do you ever feel...' post that normalizes a common struggle.",
	"Create an encouraging post about progress and personal growth.",
	"Highlight one of the services or specialties of the business.",
	"Share insights about when it is time to ask for professional help and how to choose the right provider.",
}

// ModelFactory builds a chat model for the OpenAI settings in effect.
type ModelFactory func(cfg config.OpenAI) (llms.Model, error)

func NewOpenAIModel(cfg config.OpenAI) (llms.Model, error) {
	return openai.New(
		openai.WithModel(cfg.TextModel),
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
	)
}

type GeneratorService interface {
	Generate(ctx context.Context) (*transfer.GeneratedPost, error)
}

type generatorService struct {
	cfg      config.Provider
	cs       repository.ContentSourceRepository
	newModel ModelFactory
	retry    retrypolicy.RetryPolicy[*llms.ContentResponse]
	pick     func(n int) int
}

func NewGeneratorService(cfg config.Provider, cs repository.ContentSourceRepository, newModel ModelFactory) GeneratorService {
	return &generatorService{
		cfg:      cfg,
		cs:       cs,
		newModel: newModel,
		retry:    newGenerationRetryPolicy[*llms.ContentResponse](),
		pick:     rand.Intn,
	}
}

// newGenerationRetryPolicy retries transient generation failures. Publishing
// never goes through it.
func newGenerationRetryPolicy[R any]() retrypolicy.RetryPolicy[R] {
	return retrypolicy.NewBuilder[R]().
		WithBackoff(time.Second, 8*time.Second).
		WithMaxRetries(2).
		HandleIf(func(_ R, err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrNotConfigured)
		}).
		ReturnLastFailure().
		Build()
}

// Generate asks the model for the post body, then for an image prompt
// describing it. The image prompt falls back to a default when empty.
func (s *generatorService) Generate(ctx context.Context) (*transfer.GeneratedPost, error) {
	cfg := s.cfg()
	if cfg.OpenAI.APIKey == "" {
		return nil, notConfigured("OpenAI")
	}

	model, err := s.newModel(cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("error creating language model: %w", err)
	}

	contextData, err := s.contextData(ctx)
	if err != nil {
		return nil, err
	}

	contentType := contentTypes[s.pick(len(contentTypes))]
	content, err := s.complete(ctx, model, cfg, postSystemPrompt(cfg.Business, contextData),
		contentType+"\n\nIMPORTANT: NO hashtags. Write 100-150 words. Use engaging hooks and clear structure.", 0.9)
	if err != nil {
		return nil, fmt.Errorf("error generating post content: %w", err)
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	imagePrompt, err := s.complete(ctx, model, cfg, imageSystemPrompt(cfg.Business), imageUserPrompt(content), 0.7)
	if err != nil {
		return nil, fmt.Errorf("error generating image prompt: %w", err)
	}
	if imagePrompt == "" {
		imagePrompt = defaultImagePrompt
	}

	return &transfer.GeneratedPost{
		Content:     content,
		ImagePrompt: imagePrompt,
	}, nil
}

func (s *generatorService) contextData(ctx context.Context) (string, error) {
	sources, err := s.cs.ListRecent(ctx, contentSourceLimit)
	if err != nil {
		return "", fmt.Errorf("error loading content sources: %w", err)
	}

	parts := make([]string, 0, len(sources))
	for _, cs := range sources {
		parts = append(parts, cs.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *generatorService) complete(ctx context.Context, model llms.Model, cfg *config.Config, systemPrompt, userPrompt string, temp float64) (string, error) {
	messages := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	resp, err := failsafe.With(s.retry).WithContext(ctx).Get(func() (*llms.ContentResponse, error) {
		resp, err := model.GenerateContent(ctx, messages,
			llms.WithModel(cfg.OpenAI.TextModel),
			llms.WithTemperature(temp),
		)
		if err != nil {
			slog.Warn("Language model request failed", "err", err)
		}
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func postSystemPrompt(b config.Business, contextData string) string {
	name := orDefault(b.Name, "our business")
	kind := orDefault(b.Type, "local business")
	location := orDefault(b.Location, "our community")

	return fmt.Sprintf(`You are an expert social media content creator for %s, a %s serving %s.

VOICE & TONE:
- Warm, professional and approachable
- Empowering, never condescending or preachy

POST STRUCTURE:
- Hook: start with a relatable question, bold statement or intriguing insight
- Body: 2-3 short paragraphs with valuable content (100-150 words total)
- Call-to-Action: a gentle invitation to get in touch

STRICT RULES:
- NO hashtags
- Use emojis sparingly (1-2 max)
- Short paragraphs with line breaks for readability
- Never share client stories or identifying information

Context about the business:
%s`, name, kind, location, contextData)
}

func imageSystemPrompt(b config.Business) string {
	return fmt.Sprintf("You are an expert at creating image prompts for social media posts. Create a professional, calming image prompt suitable for a %s. IMPORTANT: The image should contain NO TEXT, NO WORDS, NO LETTERS - only visual elements.",
		orDefault(b.Type, "local business"))
}

func imageUserPrompt(content string) string {
	return fmt.Sprintf(`Based on this post, create a detailed image prompt that would create a professional, calming image:

%s

IMPORTANT REQUIREMENTS:
- NO TEXT, NO WORDS, NO LETTERS in the image
- Soft blues, greens, or earth tones
- Abstract or nature-based imagery
- Appropriate for a Facebook post`, content)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
