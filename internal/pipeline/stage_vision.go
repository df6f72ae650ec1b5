package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rapidbounce/postfactory/internal/cache"
	"github.com/rapidbounce/postfactory/internal/telemetry"
	"github.com/rapidbounce/postfactory/tools/vision"
)

const StageImageAnalysis = "image_analysis"

// visionStage tags every scraped image. Images are independent, so the calls
// fan out in parallel; results land by index so output order always matches
// booking_data.image_urls. One failed image keeps its slot with empty tags
// instead of sinking the stage.
type visionStage struct {
	analyzer    vision.Analyzer
	tagCache    *cache.TagCache
	parallelism int
	tele        *telemetry.Telemetry
	logger      *log.Logger
}

func (s *visionStage) Name() string        { return StageImageAnalysis }
func (s *visionStage) InputKeys() []string { return []string{KeyBookingData} }
func (s *visionStage) OutputKey() string   { return KeyAnalyzedImages }

func (s *visionStage) Execute(ctx context.Context, _ RunInput, state State) (any, error) {
	booking, ok := state[KeyBookingData].(BookingData)
	if !ok {
		return nil, fmt.Errorf("state key %s missing or malformed", KeyBookingData)
	}

	results := make([]AnalyzedImage, len(booking.ImageURLs))

	g, gctx := errgroup.WithContext(ctx)
	limit := s.parallelism
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, imageURL := range booking.ImageURLs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = AnalyzedImage{ImageURL: imageURL, Tags: s.tagsFor(gctx, imageURL)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// only cancellation reaches here; per-image failures degrade in place
		return nil, err
	}
	return results, nil
}

func (s *visionStage) tagsFor(ctx context.Context, imageURL string) []string {
	if tags, ok := s.tagCache.Get(ctx, imageURL); ok {
		return tags
	}

	annotation, err := s.analyzer.Analyze(ctx, imageURL)
	if err != nil {
		s.tele.RecordToolFailure("vision")
		s.logger.Printf("vision failed for %s: %v", imageURL, err)
		return []string{}
	}

	tags := reduceTags(annotation.Labels, annotation.Objects, annotation.Text)
	s.tagCache.Set(ctx, imageURL, tags)
	return tags
}

// reduceTags merges annotation groups into a deduplicated tag list, keeping
// first-seen order so labels (the strongest signal) lead.
func reduceTags(groups ...[]string) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, group := range groups {
		for _, tag := range group {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}
