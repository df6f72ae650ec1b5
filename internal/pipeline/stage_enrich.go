package pipeline

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/rapidbounce/postfactory/internal/telemetry"
	"github.com/rapidbounce/postfactory/tools/web_search"
)

const StageSiteEnrichment = "site_enrichment"

// enrichStage pulls extra copy about the hotel from its own website via
// domain-scoped search queries. Enrichment is additive: no site URL, no
// search provider, or a failed search all degrade to empty website_data.
type enrichStage struct {
	searcher web_search.WebSearcher
	results  int
	tele     *telemetry.Telemetry
	logger   *log.Logger
}

func (s *enrichStage) Name() string        { return StageSiteEnrichment }
func (s *enrichStage) InputKeys() []string { return []string{KeyBookingData} }
func (s *enrichStage) OutputKey() string   { return KeyWebsiteData }

func (s *enrichStage) Execute(ctx context.Context, input RunInput, _ State) (any, error) {
	data := WebsiteData{Snippets: []string{}}

	host := siteHost(input.SiteURL)
	if host == "" || s.searcher == nil {
		return data, nil
	}

	for _, topic := range []string{"amenities", "about us"} {
		query := fmt.Sprintf("site:%s %s", host, topic)
		hits, err := s.searcher.Search(ctx, query, s.results)
		if err != nil {
			s.tele.RecordToolFailure("web_search")
			s.logger.Printf("enrichment query %q failed: %v", query, err)
			continue
		}
		for _, hit := range hits {
			if snippet := strings.TrimSpace(hit.Snippet); snippet != "" {
				data.Snippets = append(data.Snippets, snippet)
			}
		}
	}

	s.logger.Printf("enrichment for %s: %d snippets", host, len(data.Snippets))
	return data, nil
}

func siteHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
