package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rapidbounce/postfactory/tools/scrape"
)

const StageListingScrape = "listing_scrape"

// scrapeStage fetches the hotel listing and writes booking_data. Downstream
// stages cannot proceed without at least one image and a description, so a
// thin scrape is fatal here rather than later.
type scrapeStage struct {
	scraper scrape.Scraper
	logger  *log.Logger
}

func (s *scrapeStage) Name() string        { return StageListingScrape }
func (s *scrapeStage) InputKeys() []string { return nil }
func (s *scrapeStage) OutputKey() string   { return KeyBookingData }

func (s *scrapeStage) Execute(ctx context.Context, input RunInput, _ State) (any, error) {
	listing, err := s.scraper.Scrape(ctx, input.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoListingData, err)
	}
	if strings.TrimSpace(listing.Description) == "" {
		return nil, fmt.Errorf("%w: empty description", ErrNoListingData)
	}
	if len(listing.ImageURLs) == 0 {
		return nil, fmt.Errorf("%w: zero images", ErrNoListingData)
	}

	s.logger.Printf("scraped %q: %d images, %d chars of description",
		input.ListingURL, len(listing.ImageURLs), len(listing.Description))

	return BookingData{
		HotelName:    listing.HotelName,
		Description:  listing.Description,
		CanonicalURL: listing.CanonicalURL,
		ImageURLs:    listing.ImageURLs,
	}, nil
}
