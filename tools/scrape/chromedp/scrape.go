package chromedp

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
	"github.com/rapidbounce/postfactory/tools/scrape/models"
)

// hotelImageMarker identifies gallery photos on booking.com listing pages;
// everything else (sprites, flags, avatars) is served from other paths.
const hotelImageMarker = "cf.bstatic.com/xdata/images/hotel"

type Scrape struct {
	Timeout   time.Duration
	MaxImages int
}

func (s *Scrape) Scrape(ctx context.Context, listingURL string) (models.Listing, error) {
	if strings.TrimSpace(listingURL) == "" {
		return models.Listing{}, errors.New("invalid listing url")
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	page, err := renderPage(ctx, listingURL)
	if err != nil {
		return models.Listing{}, err
	}

	listing := models.Listing{
		HotelName:    strings.TrimSpace(page.HotelName),
		Description:  strings.TrimSpace(page.Description),
		CanonicalURL: strings.TrimSpace(page.Canonical),
		ImageURLs:    hotelImages(page.ImageSrcs, s.MaxImages),
	}
	if listing.CanonicalURL == "" {
		listing.CanonicalURL = listingURL
	}

	// The description selectors track booking.com markup and go stale; fall
	// back to readability extraction over the rendered HTML.
	if listing.Description == "" {
		if article, err := readability.FromReader(strings.NewReader(page.HTML), mustParseURL(listingURL)); err == nil {
			listing.Description = strings.TrimSpace(article.TextContent)
		}
	}

	return listing, nil
}

type renderedPage struct {
	HTML        string
	HotelName   string
	Description string
	Canonical   string
	ImageSrcs   []string
}

func renderPage(ctx context.Context, pageURL string) (renderedPage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var page renderedPage
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
		chromedp.Evaluate(`(document.querySelector('h2.pp-header__title')||{textContent:''}).textContent`, &page.HotelName),
		chromedp.Evaluate(`(document.querySelector('[data-testid="property-description"]')||document.querySelector('#property_description_content')||{textContent:''}).textContent`, &page.Description),
		chromedp.Evaluate(`(document.querySelector('link[rel="canonical"]')||{href:''}).href`, &page.Canonical),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('img')).map(i => i.src)`, &page.ImageSrcs),
	)
	return page, err
}

// hotelImages keeps gallery photos only, de-duplicated in first-seen order.
func hotelImages(srcs []string, max int) []string {
	seen := make(map[string]struct{}, len(srcs))
	out := make([]string, 0, max)
	for _, src := range srcs {
		if !strings.Contains(src, hotelImageMarker) {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
		if len(out) >= max {
			break
		}
	}
	return out
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
