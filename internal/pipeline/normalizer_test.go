package pipeline

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeStructuredList(t *testing.T) {
	raw := []any{
		map[string]any{"image_url": "http://img/1.jpg", "caption": "Sun all day.", "hashtags": []any{"#Pool", "Summer"}},
		map[string]any{"image_url": "http://img/2.jpg", "caption": "Rest easy.", "hashtags": []any{"#Sleep"}},
	}
	posts, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Post{
		{ImageURL: "http://img/1.jpg", Caption: "Sun all day.", Hashtags: []string{"#Pool", "#Summer"}},
		{ImageURL: "http://img/2.jpg", Caption: "Rest easy.", Hashtags: []string{"#Sleep"}},
	}
	if !reflect.DeepEqual(posts, want) {
		t.Fatalf("got %+v, want %+v", posts, want)
	}
}

func TestNormalizeFenceIdempotent(t *testing.T) {
	bare := `[{"image_url": "http://img/1.jpg", "caption": "Sun all day.", "hashtags": ["#Pool"]}]`
	fenced := "```json\n" + bare + "\n```"

	fromBare, err := Normalize(bare)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	fromFenced, err := Normalize(fenced)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if !reflect.DeepEqual(fromBare, fromFenced) {
		t.Fatalf("fenced output diverged: %+v vs %+v", fromFenced, fromBare)
	}
}

func TestNormalizeProseAroundJSON(t *testing.T) {
	raw := "Sure, here are the posts you asked for:\n" +
		`[{"image_url": "http://img/1.jpg", "caption": "Sun all day.", "hashtags": []}]` +
		"\nLet me know if you want variations."
	posts, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 || posts[0].Caption != "Sun all day." {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestNormalizeHashtagsFromSingleString(t *testing.T) {
	raw := `[{"image_url": "http://img/1.jpg", "caption": "Sun.", "hashtags": "#Pool, Summer  #Vibes"}]`
	posts, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"#Pool", "#Summer", "#Vibes"}
	if !reflect.DeepEqual(posts[0].Hashtags, want) {
		t.Fatalf("got %v, want %v", posts[0].Hashtags, want)
	}
}

func TestNormalizeMissingHashtagsKept(t *testing.T) {
	raw := `[{"image_url": "http://img/1.jpg", "caption": "Sun."}]`
	posts, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posts[0].Hashtags == nil || len(posts[0].Hashtags) != 0 {
		t.Fatalf("want empty non-nil hashtags, got %#v", posts[0].Hashtags)
	}
}

func TestNormalizeDropsUnrecoverable(t *testing.T) {
	raw := `[{"hashtags": ["#Orphan"]}, {"image_url": "http://img/2.jpg", "caption": "Keep me."}]`
	posts, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 || posts[0].ImageURL != "http://img/2.jpg" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestNormalizePostsWrapper(t *testing.T) {
	raw := `{"posts": [{"image_url": "http://img/1.jpg", "caption": "Sun."}]}`
	posts, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	raw := `[
		{"image_url": "http://img/3.jpg", "caption": "c"},
		{"image_url": "http://img/1.jpg", "caption": "a"},
		{"image_url": "http://img/2.jpg", "caption": "b"}
	]`
	posts, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{posts[0].ImageURL, posts[1].ImageURL, posts[2].ImageURL}
	want := []string{"http://img/3.jpg", "http://img/1.jpg", "http://img/2.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order changed: got %v, want %v", got, want)
	}
}

func TestNormalizeNothingRecoverable(t *testing.T) {
	for _, raw := range []any{
		nil,
		"",
		"no structure here at all",
		`[{"hashtags": ["#only"]}]`,
		`[]`,
	} {
		if _, err := Normalize(raw); !errors.Is(err, ErrNoRecoverablePosts) {
			t.Fatalf("raw %v: expected ErrNoRecoverablePosts, got %v", raw, err)
		}
	}
}

func TestReconcilePadsAndOrders(t *testing.T) {
	analyzed := []AnalyzedImage{
		{ImageURL: "http://img/1.jpg", Tags: []string{"swimming pool", "sunset"}},
		{ImageURL: "http://img/2.jpg", Tags: []string{}},
		{ImageURL: "http://img/3.jpg", Tags: []string{"breakfast"}},
	}
	posts := []Post{
		{ImageURL: "http://img/3.jpg", Caption: "Morning fuel.", Hashtags: []string{"#Breakfast"}},
		{Caption: "No URL from the model.", Hashtags: []string{}},
	}

	out := reconcile(posts, analyzed, "Hotel Aurora")
	if len(out) != len(analyzed) {
		t.Fatalf("want %d posts, got %d", len(analyzed), len(out))
	}
	for i, img := range analyzed {
		if out[i].ImageURL != img.ImageURL {
			t.Fatalf("slot %d: got %s, want %s", i, out[i].ImageURL, img.ImageURL)
		}
	}
	// URL-less post fills the first uncovered slot
	if out[0].Caption != "No URL from the model." {
		t.Fatalf("unexpected slot 0: %+v", out[0])
	}
	// slot 1 had nothing left; fallback must still carry content
	if out[1].Caption == "" || len(out[1].Hashtags) == 0 {
		t.Fatalf("fallback post is empty: %+v", out[1])
	}
	if out[2].Caption != "Morning fuel." {
		t.Fatalf("URL match lost: %+v", out[2])
	}
}

func TestReconcileDropsUnknownURLs(t *testing.T) {
	analyzed := []AnalyzedImage{{ImageURL: "http://img/1.jpg", Tags: []string{"lobby"}}}
	posts := []Post{
		{ImageURL: "http://img/other.jpg", Caption: "Hallucinated image."},
		{ImageURL: "http://img/1.jpg", Caption: "Real image."},
	}
	out := reconcile(posts, analyzed, "")
	if len(out) != 1 || out[0].Caption != "Real image." {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestFallbackPostUsesTags(t *testing.T) {
	post := fallbackPost(AnalyzedImage{
		ImageURL: "http://img/1.jpg",
		Tags:     []string{"swimming pool", "sunset", "cocktail", "extra"},
	}, "Hotel Aurora")

	if post.ImageURL != "http://img/1.jpg" {
		t.Fatalf("unexpected image url: %s", post.ImageURL)
	}
	if post.Caption == "" {
		t.Fatal("empty caption")
	}
	if len(post.Hashtags) == 0 || post.Hashtags[0] != "#SwimmingPool" {
		t.Fatalf("unexpected hashtags: %v", post.Hashtags)
	}
	if len(post.Hashtags) > 5 {
		t.Fatalf("too many hashtags: %v", post.Hashtags)
	}
}

func TestHashtagify(t *testing.T) {
	cases := map[string]string{
		"swimming pool": "#SwimmingPool",
		"Sunset":        "#Sunset",
		"a la carte":    "#ALaCarte",
		"!!!":           "",
	}
	for in, want := range cases {
		if got := hashtagify(in); got != want {
			t.Fatalf("hashtagify(%q) = %q, want %q", in, got, want)
		}
	}
}
