package server

import (
	"github.com/rapidbounce/postfactory/internal/pipeline"
	"github.com/rapidbounce/postfactory/internal/session/session_models"
)

type GenerateRequest struct {
	BookingURL string `json:"booking_url"`
	WebsiteURL string `json:"website_url,omitempty"`
}

type GenerateResponse struct {
	Status    string          `json:"status"`
	Data      []pipeline.Post `json:"data"`
	SessionID string          `json:"session_id,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type SessionResponse struct {
	ID     string                 `json:"id"`
	State  map[string]any         `json:"state"`
	Events []session_models.Event `json:"events"`
}
