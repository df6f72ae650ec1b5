package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/rapidbounce/postfactory/provider"
)

const StageCopywriting = "copywriting"

// copyStage asks the model for one caption plus hashtags per analyzed image
// in a single batched call. Its contract ends at returning the raw model
// text; the normalizer owns structural repair.
type copyStage struct {
	llm    provider.LLMProvider
	logger *log.Logger
}

func (s *copyStage) Name() string        { return StageCopywriting }
func (s *copyStage) InputKeys() []string { return []string{KeyBookingData, KeyAnalyzedImages} }
func (s *copyStage) OutputKey() string   { return KeyFinalPosts }

func (s *copyStage) Execute(ctx context.Context, _ RunInput, state State) (any, error) {
	booking, ok := state[KeyBookingData].(BookingData)
	if !ok {
		return nil, fmt.Errorf("state key %s missing or malformed", KeyBookingData)
	}
	analyzed, ok := state[KeyAnalyzedImages].([]AnalyzedImage)
	if !ok {
		return nil, fmt.Errorf("state key %s missing or malformed", KeyAnalyzedImages)
	}

	website, _ := state[KeyWebsiteData].(WebsiteData)

	prompt, err := buildCopyPrompt(booking, website, analyzed)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyGeneration, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyGeneration
	}

	s.logger.Printf("copywriting returned %d chars for %d images", len(raw), len(analyzed))
	return raw, nil
}

func buildCopyPrompt(booking BookingData, website WebsiteData, analyzed []AnalyzedImage) (string, error) {
	images, err := json.MarshalIndent(analyzed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode analyzed images: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a world-class social media marketer for the tourism industry.\n")
	b.WriteString("Write compelling posts for the hotel below.\n\n")
	if booking.HotelName != "" {
		fmt.Fprintf(&b, "Hotel: %s\n", booking.HotelName)
	}
	fmt.Fprintf(&b, "Description:\n%s\n\n", booking.Description)
	if len(website.Snippets) > 0 {
		fmt.Fprintf(&b, "Extra notes from the hotel's website:\n%s\n\n", strings.Join(website.Snippets, "\n"))
	}
	fmt.Fprintf(&b, "Analyzed images (one post per entry, in this order):\n%s\n\n", images)
	b.WriteString("For each image write a compelling caption of 2-3 sentences inspired by that image's tags ")
	b.WriteString("and consistent with the hotel's tone, plus 3-5 relevant hashtags.\n")
	b.WriteString(`Respond with a single JSON array, no commentary, shaped exactly like:
[
  { "image_url": "url1.jpg", "caption": "Your amazing caption here...", "hashtags": ["#tag1", "#tag2"] }
]
`)
	return b.String(), nil
}
