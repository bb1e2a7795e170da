package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/go-resty/resty/v2"
	"github.com/h2non/filetype"
	config "github.com/maheshrc27/postpilot/configs"
)

const generatedDir = "generated"

type imageGenerationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type ImageService interface {
	// Generate renders prompt into an image for postID and returns a URL the
	// publisher can use: the R2 public URL when R2 is configured, otherwise a
	// site-relative path under the public directory.
	Generate(ctx context.Context, prompt, postID string) (string, error)
}

type imageService struct {
	cfg   config.Provider
	r2    R2Service
	retry retrypolicy.RetryPolicy[string]
	now   func() time.Time
}

func NewImageService(cfg config.Provider, r2 R2Service) ImageService {
	return &imageService{
		cfg:   cfg,
		r2:    r2,
		retry: newGenerationRetryPolicy[string](),
		now:   time.Now,
	}
}

func (s *imageService) Generate(ctx context.Context, prompt, postID string) (string, error) {
	cfg := s.cfg()
	if cfg.OpenAI.APIKey == "" {
		return "", notConfigured("OpenAI")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("image prompt is empty")
	}

	remoteURL, err := failsafe.With(s.retry).WithContext(ctx).Get(func() (string, error) {
		return s.requestImage(ctx, cfg.OpenAI, prompt)
	})
	if err != nil {
		return "", err
	}

	data, err := s.download(ctx, remoteURL)
	if err != nil {
		return "", err
	}

	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return "", fmt.Errorf("generated file is not an image (%s)", kind.MIME.Value)
	}

	name := fmt.Sprintf("post-%s-%d.%s", postID, s.now().UnixMilli(), kind.Extension)

	if cfg.R2.Configured() {
		return s.r2.Upload(ctx, generatedDir+"/"+name, data, kind.MIME.Value)
	}

	dir := filepath.Join(cfg.PublicDir, generatedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating image directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("error saving image: %w", err)
	}

	return "/" + generatedDir + "/" + name, nil
}

func (s *imageService) requestImage(ctx context.Context, cfg config.OpenAI, prompt string) (string, error) {
	var out imageGenerationResponse
	var apiErr openAIErrorResponse

	resp, err := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"model":   cfg.ImageModel,
			"prompt":  prompt,
			"n":       1,
			"size":    "1024x1024",
			"quality": "standard",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/images/generations")
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("image request failed: %s", apiErr.Error.Message)
		}
		return "", fmt.Errorf("image request failed with status %d", resp.StatusCode())
	}

	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return "", ErrNoImageCreated
	}

	return out.Data[0].URL, nil
}

func (s *imageService) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := resty.New().R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("error downloading image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("error downloading image: status %d", resp.StatusCode())
	}

	slog.Info("Downloaded generated image", "bytes", len(resp.Body()))
	return resp.Body(), nil
}
