package models

// Listing is the scraped view of a hotel listing page.
type Listing struct {
	HotelName    string   `json:"hotel_name,omitempty"`
	Description  string   `json:"description"`
	CanonicalURL string   `json:"canonical_url"`
	ImageURLs    []string `json:"image_urls"`
}
