package vision

import (
	"context"
	"time"

	"github.com/rapidbounce/postfactory/tools/vision/googlevision"
	"github.com/rapidbounce/postfactory/tools/vision/models"
)

const DefaultTimeout = 20 * time.Second

// Analyzer annotates a single publicly reachable image URL. A failed call is
// scoped to that image; callers decide whether it aborts anything larger.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (models.Annotation, error)
}

type AnalyzerType string

const (
	GoogleVisionAnalyzerType AnalyzerType = "googlevision"
)

func NewAnalyzer(analyzerType AnalyzerType, apiKey, endpoint string, timeout time.Duration) (Analyzer, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch analyzerType {
	case GoogleVisionAnalyzerType:
		return &googlevision.Annotate{ApiKey: apiKey, Endpoint: endpoint, Timeout: timeout}, nil
	default:
		return nil, &Error{"unsupported analyzer type"}
	}
}

type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }
