package googlevision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rapidbounce/postfactory/tools/vision/models"
)

const defaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// Confidence floors below which annotations are too noisy to feed a
// copywriting prompt.
const (
	minLabelScore  = 0.75
	minObjectScore = 0.6
)

type Annotate struct {
	ApiKey   string
	Endpoint string // overridable for tests
	Timeout  time.Duration
}

func (a *Annotate) Analyze(ctx context.Context, imageURL string) (models.Annotation, error) {
	if strings.TrimSpace(imageURL) == "" {
		return models.Annotation{}, errors.New("invalid image url")
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	// https://cloud.google.com/vision/docs/reference/rest/v1/images/annotate
	payload := map[string]any{
		"requests": []map[string]any{{
			"image": map[string]any{"source": map[string]any{"imageUri": imageURL}},
			"features": []map[string]any{
				{"type": "LABEL_DETECTION", "maxResults": 10},
				{"type": "OBJECT_LOCALIZATION", "maxResults": 5},
				{"type": "TEXT_DETECTION", "maxResults": 5},
			},
		}},
	}
	body, _ := json.Marshal(payload)

	endpoint := a.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"?key="+a.ApiKey, bytes.NewReader(body))
	if err != nil {
		return models.Annotation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.Annotation{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Annotation{}, fmt.Errorf("vision status %d", resp.StatusCode)
	}

	var raw struct {
		Responses []struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
			LabelAnnotations []struct {
				Description string  `json:"description"`
				Score       float64 `json:"score"`
			} `json:"labelAnnotations"`
			LocalizedObjectAnnotations []struct {
				Name  string  `json:"name"`
				Score float64 `json:"score"`
			} `json:"localizedObjectAnnotations"`
			TextAnnotations []struct {
				Description string `json:"description"`
			} `json:"textAnnotations"`
		} `json:"responses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.Annotation{}, err
	}
	if len(raw.Responses) == 0 {
		return models.Annotation{}, errors.New("empty vision response")
	}
	r := raw.Responses[0]
	if r.Error != nil {
		return models.Annotation{}, fmt.Errorf("vision: %s", r.Error.Message)
	}

	var out models.Annotation
	for _, l := range r.LabelAnnotations {
		if l.Score >= minLabelScore {
			out.Labels = append(out.Labels, l.Description)
		}
	}
	for _, o := range r.LocalizedObjectAnnotations {
		if o.Score >= minObjectScore {
			out.Objects = append(out.Objects, o.Name)
		}
	}
	// The first text annotation is the full detected block; the rest are
	// individual words. Keep single words only.
	for i, t := range r.TextAnnotations {
		if i == 0 {
			continue
		}
		if word := strings.TrimSpace(t.Description); word != "" && !strings.ContainsRune(word, ' ') {
			out.Text = append(out.Text, word)
		}
	}
	return out, nil
}
