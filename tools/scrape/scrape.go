package scrape

import (
	"context"
	"time"

	"github.com/rapidbounce/postfactory/tools/scrape/chromedp"
	"github.com/rapidbounce/postfactory/tools/scrape/models"
)

const (
	DefaultTimeout   = 45 * time.Second
	DefaultMaxImages = 12
)

// Scraper fetches a hotel listing page and extracts the marketing-relevant
// parts: the property description, the canonical URL and the gallery images.
type Scraper interface {
	Scrape(ctx context.Context, listingURL string) (models.Listing, error)
}

type ScraperType string

const (
	ChromedpScraperType ScraperType = "chromedp"
)

func NewScraper(scraperType ScraperType, timeout time.Duration, maxImages int) (Scraper, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}

	switch scraperType {
	case ChromedpScraperType:
		return &chromedp.Scrape{Timeout: timeout, MaxImages: maxImages}, nil
	default:
		return nil, &Error{"unsupported scraper type"}
	}
}

type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }
