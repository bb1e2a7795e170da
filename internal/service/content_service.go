package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	aboutMaxRunes = 500
	maxServices   = 10
	fetchTimeout  = 20 * time.Second
)

type ContentService interface {
	FetchWebsite(ctx context.Context) (*transfer.BusinessInfo, error)
	List(ctx context.Context) ([]*models.ContentSource, error)
}

type contentService struct {
	cfg config.Provider
	cs  repository.ContentSourceRepository
}

func NewContentService(cfg config.Provider, cs repository.ContentSourceRepository) ContentService {
	return &contentService{cfg: cfg, cs: cs}
}

// FetchWebsite scrapes the business website and stores what it finds as a
// business_info content source for later generation runs.
func (s *contentService) FetchWebsite(ctx context.Context) (*transfer.BusinessInfo, error) {
	cfg := s.cfg()
	if cfg.Business.URL == "" {
		return nil, notConfigured("Business website")
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	resp, err := resty.New().R().SetContext(ctx).Get(cfg.Business.URL)
	if err != nil {
		return nil, fmt.Errorf("error fetching website: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("error fetching website: status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("error parsing website: %w", err)
	}

	info := extractBusinessInfo(doc, cfg.Business)

	content, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	_, err = s.cs.Create(ctx, &models.ContentSource{
		ID:          id,
		Source:      models.ContentSourceWebsite,
		Content:     string(content),
		ContentType: models.ContentTypeBusinessInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("error saving content source: %w", err)
	}

	return info, nil
}

func extractBusinessInfo(doc *goquery.Document, b config.Business) *transfer.BusinessInfo {
	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		name = b.Name
	}

	var about strings.Builder
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if text == "" {
			return
		}
		if about.Len() > 0 {
			about.WriteString(" ")
		}
		about.WriteString(text)
	})

	var services []string
	doc.Find("h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if text := strings.TrimSpace(h.Text()); text != "" {
			services = append(services, text)
		}
		return len(services) < maxServices
	})

	return &transfer.BusinessInfo{
		Name:     name,
		About:    truncateRunes(about.String(), aboutMaxRunes),
		Location: b.Location,
		Type:     b.Type,
		Services: services,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (s *contentService) List(ctx context.Context) ([]*models.ContentSource, error) {
	sources, err := s.cs.ListRecent(ctx, contentSourceLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing content sources: %w", err)
	}
	if sources == nil {
		sources = []*models.ContentSource{}
	}
	return sources, nil
}
