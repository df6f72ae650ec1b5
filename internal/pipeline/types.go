package pipeline

import (
	"context"

	"github.com/rapidbounce/postfactory/internal/cache"
	"github.com/rapidbounce/postfactory/provider"
	"github.com/rapidbounce/postfactory/tools/scrape"
	"github.com/rapidbounce/postfactory/tools/vision"
	"github.com/rapidbounce/postfactory/tools/web_search"
)

// State keys, one per stage, written in pipeline order. Later stages see
// everything earlier stages wrote; a key is written exactly once per run.
const (
	KeyBookingData    = "booking_data"
	KeyWebsiteData    = "website_data"
	KeyAnalyzedImages = "analyzed_images"
	KeyFinalPosts     = "final_posts"
)

// RunInput is the caller's request: the listing to scrape and, optionally,
// the hotel's own website for enrichment.
type RunInput struct {
	ListingURL string `json:"listing_url"`
	SiteURL    string `json:"site_url,omitempty"`
}

// BookingData is the output of the listing scrape stage.
type BookingData struct {
	HotelName    string   `json:"hotel_name,omitempty"`
	Description  string   `json:"description"`
	CanonicalURL string   `json:"canonical_url"`
	ImageURLs    []string `json:"image_urls"`
}

// WebsiteData is the output of the site enrichment stage. Best-effort: an
// empty snippet list is a valid result.
type WebsiteData struct {
	Snippets []string `json:"snippets"`
}

// AnalyzedImage pairs one scraped image with its marketing tags. An image the
// vision tool failed on keeps its slot with an empty tag set.
type AnalyzedImage struct {
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

// Post is the final per-image artifact.
type Post struct {
	ImageURL string   `json:"image_url"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// State is the shared state of one run, keyed by stage output name. During a
// run the orchestrator holds the authoritative typed copy; the session store
// mirrors it for inspection.
type State map[string]any

// Stage is one ordered unit of the pipeline. Stages are stateless across
// runs; external capabilities are injected at construction.
type Stage interface {
	Name() string
	InputKeys() []string
	OutputKey() string
	Execute(ctx context.Context, input RunInput, state State) (any, error)
}

// Tools bundles the external capabilities the stages depend on. TagCache may
// be nil; Searcher may be nil when no search provider is configured.
type Tools struct {
	Scraper  scrape.Scraper
	Searcher web_search.WebSearcher
	Analyzer vision.Analyzer
	LLM      provider.LLMProvider
	TagCache *cache.TagCache
}
