package web_search

import (
	"context"

	"github.com/rapidbounce/postfactory/tools/web_search/brave"
	"github.com/rapidbounce/postfactory/tools/web_search/models"
	"github.com/rapidbounce/postfactory/tools/web_search/serper"
)

// WebSearcher runs a query and returns snippet results. An empty result set is
// not an error.
type WebSearcher interface {
	Search(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = &Error{"unsupported provider"}

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }
