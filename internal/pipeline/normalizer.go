package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/rapidbounce/postfactory/internal/helpers"
)

// Normalize repairs the copywriting stage's raw output into a strict post
// list. Tolerances, in order: already-structured input passes through with
// per-field coercion; text input is unwrapped from code fences and scanned
// for the first balanced JSON value; hashtags are coerced from a delimited
// string, a list, or nothing; candidates missing both caption and image_url
// are dropped. Input order is preserved. It fails only when zero recoverable
// posts exist.
func Normalize(raw any) ([]Post, error) {
	candidates, err := candidatesFrom(raw)
	if err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(candidates))
	for _, c := range candidates {
		if post, ok := coercePost(c); ok {
			posts = append(posts, post)
		}
	}
	if len(posts) == 0 {
		return nil, ErrNoRecoverablePosts
	}
	return posts, nil
}

func candidatesFrom(raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrNoRecoverablePosts
	case []Post:
		out := make([]any, len(v))
		for i, p := range v {
			out[i] = p
		}
		return out, nil
	case []any:
		return v, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, nil
	case map[string]any:
		// some models wrap the list in {"posts": [...]}
		if inner, ok := v["posts"].([]any); ok {
			return inner, nil
		}
		return []any{v}, nil
	case string:
		text, err := helpers.ExtractJSON(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoRecoverablePosts, err)
		}
		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoRecoverablePosts, err)
		}
		return candidatesFrom(decoded)
	default:
		return nil, fmt.Errorf("%w: unsupported raw type %T", ErrNoRecoverablePosts, raw)
	}
}

func coercePost(candidate any) (Post, bool) {
	switch v := candidate.(type) {
	case Post:
		v.Hashtags = coerceHashtags(v.Hashtags)
		return v, v.Caption != "" || v.ImageURL != ""
	case map[string]any:
		post := Post{
			ImageURL: asString(v["image_url"]),
			Caption:  strings.TrimSpace(asString(v["caption"])),
			Hashtags: coerceHashtags(v["hashtags"]),
		}
		// unrecoverable: neither a caption to post nor an image to attach to
		if post.Caption == "" && post.ImageURL == "" {
			return Post{}, false
		}
		return post, true
	default:
		return Post{}, false
	}
}

// coerceHashtags accepts a list, a single delimited string, or nothing, and
// returns clean "#"-prefixed tags.
func coerceHashtags(v any) []string {
	var parts []string
	switch tags := v.(type) {
	case nil:
		return []string{}
	case []string:
		parts = tags
	case []any:
		for _, t := range tags {
			parts = append(parts, asString(t))
		}
	case string:
		parts = strings.FieldsFunc(tags, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
	default:
		return []string{}
	}

	out := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimLeft(p, "#"))
		if p == "" {
			continue
		}
		out = append(out, "#"+p)
	}
	return out
}

// reconcile aligns normalized posts to the analyzed image order. Posts match
// by image URL first; posts the model returned without a URL fill remaining
// slots positionally; images still uncovered get a deterministic fallback
// built from their tags. The result always has one post per analyzed image,
// in image order. Posts pointing at unknown URLs are dropped.
func reconcile(posts []Post, analyzed []AnalyzedImage, hotelName string) []Post {
	byURL := make(map[string]Post, len(posts))
	var unassigned []Post
	for _, p := range posts {
		if p.ImageURL == "" {
			unassigned = append(unassigned, p)
			continue
		}
		if _, ok := byURL[p.ImageURL]; !ok {
			byURL[p.ImageURL] = p
		}
	}

	out := make([]Post, len(analyzed))
	for i, img := range analyzed {
		if p, ok := byURL[img.ImageURL]; ok {
			out[i] = p
			continue
		}
		if len(unassigned) > 0 {
			p := unassigned[0]
			unassigned = unassigned[1:]
			p.ImageURL = img.ImageURL
			out[i] = p
			continue
		}
		out[i] = fallbackPost(img, hotelName)
	}
	return out
}

// fallbackPost covers an image the copywriting output missed.
func fallbackPost(img AnalyzedImage, hotelName string) Post {
	subject := hotelName
	if subject == "" {
		subject = "our hotel"
	}

	var caption string
	if len(img.Tags) > 0 {
		caption = fmt.Sprintf("A glimpse of life at %s. Think %s and more. Your next stay starts here.",
			subject, strings.ToLower(strings.Join(firstN(img.Tags, 3), ", ")))
	} else {
		caption = fmt.Sprintf("A glimpse of life at %s. Every corner has a story. Your next stay starts here.", subject)
	}

	hashtags := []string{}
	for _, tag := range firstN(img.Tags, 2) {
		if h := hashtagify(tag); h != "" {
			hashtags = append(hashtags, h)
		}
	}
	for _, h := range []string{"#TravelInspo", "#HotelLife", "#BookYourStay"} {
		if len(hashtags) >= 5 {
			break
		}
		hashtags = append(hashtags, h)
	}

	return Post{ImageURL: img.ImageURL, Caption: caption, Hashtags: hashtags}
}

// hashtagify turns "swimming pool" into "#SwimmingPool".
func hashtagify(tag string) string {
	var b strings.Builder
	for _, word := range strings.Fields(tag) {
		var clean []rune
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				clean = append(clean, r)
			}
		}
		if len(clean) == 0 {
			continue
		}
		clean[0] = unicode.ToUpper(clean[0])
		b.WriteString(string(clean))
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}

func firstN(items []string, n int) []string {
	if len(items) < n {
		return items
	}
	return items[:n]
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
