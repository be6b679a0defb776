package parser

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *JSONParser {
	return NewJSONParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestJSONParser_ParseTopStories_KeepsFirstTwoInOrder(t *testing.T) {
	data := `{
		"status": "OK",
		"results": [
			{"title": "One", "section": "arts", "url": "https://www.nytimes.com/1", "abstract": "a1", "published_date": "2024-01-01"},
			{"title": "Two", "section": "arts", "url": "https://www.nytimes.com/2", "abstract": "a2", "published_date": "2024-01-02"},
			{"title": "Three", "section": "arts", "url": "https://www.nytimes.com/3"}
		]
	}`

	stories, err := newTestParser().ParseTopStories([]byte(data), 2)

	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "One", stories[0].Title)
	assert.Equal(t, "a1", stories[0].Abstract)
	assert.Equal(t, "2024-01-01", stories[0].PublishedDate)
	assert.Equal(t, "Two", stories[1].Title)
}

func TestJSONParser_ParseTopStories_SkipsMalformedWithinLimit(t *testing.T) {
	// лимит применяется до валидации: плохой элемент занимает слот
	data := `{"results": [
		{"title": "Bad", "url": "not a url"},
		{"title": "Good", "url": "https://www.nytimes.com/good"},
		{"title": "Late", "url": "https://www.nytimes.com/late"}
	]}`

	stories, err := newTestParser().ParseTopStories([]byte(data), 2)

	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "Good", stories[0].Title)
}

func TestJSONParser_ParseTopStories_MissingResults(t *testing.T) {
	stories, err := newTestParser().ParseTopStories([]byte(`{"status":"OK"}`), 2)

	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestJSONParser_ParseTopStories_NotJSON(t *testing.T) {
	stories, err := newTestParser().ParseTopStories([]byte(`[1,2]`), 2)

	assert.Error(t, err)
	assert.Nil(t, stories)
	assert.Contains(t, err.Error(), "failed to decode top stories")
}

func TestMapTopStory_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing url", `{"title": "x"}`},
		{"empty url", `{"title": "x", "url": ""}`},
		{"relative url", `{"url": "/2024/01/01/arts.html"}`},
		{"non-http scheme", `{"url": "ftp://www.nytimes.com/x"}`},
		{"garbage url", `{"url": "ht tp://bad"}`},
		{"numeric title", `{"title": 42, "url": "https://www.nytimes.com/x"}`},
		{"not an object", `"story"`},
		{"null item", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := MapTopStory([]byte(tt.raw))
				assert.Error(t, err)
			})
		})
	}
}

func TestMapTopStory_DefaultsMissingFields(t *testing.T) {
	story, err := MapTopStory([]byte(`{"url": "https://www.nytimes.com/x"}`))

	require.NoError(t, err)
	assert.Equal(t, "https://www.nytimes.com/x", story.URL)
	assert.Empty(t, story.Title)
	assert.Empty(t, story.Section)
	assert.Empty(t, story.Abstract)
	assert.Empty(t, story.PublishedDate)
}

func TestJSONParser_ParseArticles(t *testing.T) {
	data := `{
		"status": "OK",
		"response": {
			"docs": [
				{"headline": {"main": "Sample Article"}, "snippet": "This is a snippet.", "web_url": "https://example.com", "pub_date": "2023-01-01T00:00:00Z"},
				{"headline": {"main": "No URL"}, "snippet": "dropped"},
				{"snippet": "no headline", "web_url": "https://example.com/2"}
			]
		}
	}`

	articles, err := newTestParser().ParseArticles([]byte(data))

	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Sample Article", articles[0].Headline)
	assert.Equal(t, "This is a snippet.", articles[0].Snippet)
	assert.Equal(t, "https://example.com", articles[0].WebURL)
	assert.Equal(t, "2023-01-01T00:00:00Z", articles[0].PubDate)
	assert.Empty(t, articles[1].Headline)
}

func TestJSONParser_ParseArticles_MissingDocs(t *testing.T) {
	articles, err := newTestParser().ParseArticles([]byte(`{"status":"OK","response":{}}`))

	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestMapArticle_StringHeadlineIsMalformed(t *testing.T) {
	_, err := MapArticle([]byte(`{"headline": "flat", "web_url": "https://example.com"}`))
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, validateURL("https://www.nytimes.com/2024/01/01/arts/x.html"))
	assert.NoError(t, validateURL("http://example.com"))
	assert.True(t, errors.Is(validateURL(""), errMissingURL))
	assert.True(t, errors.Is(validateURL("example.com/x"), errBadURL))
	assert.True(t, errors.Is(validateURL("https:///nohost"), errBadURL))
}

func TestMapTopStory_NullFieldIsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"null title", `{"title": null, "url": "https://www.nytimes.com/a"}`},
		{"null section", `{"title": "x", "section": null, "url": "https://www.nytimes.com/a"}`},
		{"null url", `{"title": "x", "url": null}`},
		{"null published date", `{"url": "https://www.nytimes.com/a", "published_date": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapTopStory([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errNullField))
		})
	}
}

func TestMapArticle_NullFieldIsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"null headline", `{"headline": null, "web_url": "https://example.com"}`},
		{"null headline main", `{"headline": {"main": null}, "web_url": "https://example.com"}`},
		{"null snippet", `{"headline": {"main": "x"}, "snippet": null, "web_url": "https://example.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapArticle([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errNullField))
		})
	}
}

func TestJSONParser_ParseArticles_SkipsNullHeadline(t *testing.T) {
	data := `{"response": {"docs": [
		{"headline": null, "web_url": "https://example.com/1"},
		{"headline": {"main": "Kept"}, "web_url": "https://example.com/2"}
	]}}`

	articles, err := newTestParser().ParseArticles([]byte(data))

	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Kept", articles[0].Headline)
}
