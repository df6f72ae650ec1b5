package models

// Annotation is the reduced output of one image analysis call: confident
// labels, localized objects and detected single-word text.
type Annotation struct {
	Labels  []string `json:"labels"`
	Objects []string `json:"objects"`
	Text    []string `json:"text"`
}
