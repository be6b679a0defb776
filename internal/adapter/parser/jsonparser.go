package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"nytimes/internal/domain"
	"nytimes/internal/metrics"
)

var (
	errMissingURL = errors.New("url is missing")
	errBadURL     = errors.New("url is not an absolute http(s) URL")
	errNullField  = errors.New("field is null")
)

// nullableString отличает явный null от отсутствующего поля:
// отсутствие дает пустую строку, null делает элемент некорректным.
type nullableString struct {
	value string
	null  bool
}

func (s *nullableString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		s.null = true
		return nil
	}
	return json.Unmarshal(b, &s.value)
}

type headlineJSON struct {
	Main nullableString
	null bool
}

func (h *headlineJSON) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		h.null = true
		return nil
	}
	var v struct {
		Main nullableString `json:"main"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	h.Main = v.Main
	return nil
}

type namedField struct {
	name  string
	field nullableString
}

func rejectNulls(fields ...namedField) error {
	for _, f := range fields {
		if f.field.null {
			return fmt.Errorf("%w: %s", errNullField, f.name)
		}
	}
	return nil
}

type topStoriesJSON struct {
	Results []json.RawMessage `json:"results"`
}

type topStoryJSON struct {
	Title         nullableString `json:"title"`
	Section       nullableString `json:"section"`
	URL           nullableString `json:"url"`
	Abstract      nullableString `json:"abstract"`
	PublishedDate nullableString `json:"published_date"`
}

type searchJSON struct {
	Response struct {
		Docs []json.RawMessage `json:"docs"`
	} `json:"response"`
}

type articleJSON struct {
	Headline headlineJSON   `json:"headline"`
	Snippet  nullableString `json:"snippet"`
	WebURL   nullableString `json:"web_url"`
	PubDate  nullableString `json:"pub_date"`
}

// JSONParser преобразует ответы upstream API в доменные записи.
// Некорректные элементы пропускаются с предупреждением, не прерывая обработку пакета.
type JSONParser struct {
	log *slog.Logger
}

func NewJSONParser(log *slog.Logger) *JSONParser {
	return &JSONParser{
		log: log.With(slog.String("component", "parser")),
	}
}

// ParseTopStories извлекает не более limit первых элементов массива results.
// Ошибка возвращается только если сам документ не является JSON-объектом ожидаемой формы.
func (p *JSONParser) ParseTopStories(data []byte, limit int) ([]domain.TopStory, error) {
	var envelope topStoriesJSON
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode top stories: %w", err)
	}
	items := envelope.Results
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	stories := make([]domain.TopStory, 0, len(items))
	for i, raw := range items {
		story, err := MapTopStory(raw)
		if err != nil {
			p.skip("top_story", i, err)
			continue
		}
		stories = append(stories, story)
	}
	return stories, nil
}

// ParseArticles извлекает все документы из response.docs.
func (p *JSONParser) ParseArticles(data []byte) ([]domain.Article, error) {
	var envelope searchJSON
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode article search: %w", err)
	}
	articles := make([]domain.Article, 0, len(envelope.Response.Docs))
	for i, raw := range envelope.Response.Docs {
		article, err := MapArticle(raw)
		if err != nil {
			p.skip("article", i, err)
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func (p *JSONParser) skip(kind string, index int, err error) {
	metrics.RecordSkipped(kind)
	p.log.Warn("Skipping malformed item",
		slog.String("kind", kind),
		slog.Int("index", index),
		slog.Any("error", err),
	)
}

// MapTopStory преобразует один элемент results. Отсутствующие строковые поля
// становятся пустыми строками; null в любом поле делает элемент некорректным,
// поле url обязано быть корректным URL.
func MapTopStory(raw json.RawMessage) (domain.TopStory, error) {
	var item topStoryJSON
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.TopStory{}, fmt.Errorf("malformed story: %w", err)
	}
	if err := rejectNulls(
		namedField{"title", item.Title},
		namedField{"section", item.Section},
		namedField{"url", item.URL},
		namedField{"abstract", item.Abstract},
		namedField{"published_date", item.PublishedDate},
	); err != nil {
		return domain.TopStory{}, fmt.Errorf("malformed story: %w", err)
	}
	if err := validateURL(item.URL.value); err != nil {
		return domain.TopStory{}, fmt.Errorf("malformed story %q: %w", item.Title.value, err)
	}
	return domain.TopStory{
		Title:         item.Title.value,
		Section:       item.Section.value,
		URL:           item.URL.value,
		Abstract:      item.Abstract.value,
		PublishedDate: item.PublishedDate.value,
	}, nil
}

// MapArticle преобразует один документ поиска; заголовок берется из headline.main.
func MapArticle(raw json.RawMessage) (domain.Article, error) {
	var doc articleJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Article{}, fmt.Errorf("malformed article: %w", err)
	}
	if doc.Headline.null {
		return domain.Article{}, fmt.Errorf("malformed article: %w: headline", errNullField)
	}
	if err := rejectNulls(
		namedField{"headline.main", doc.Headline.Main},
		namedField{"snippet", doc.Snippet},
		namedField{"web_url", doc.WebURL},
		namedField{"pub_date", doc.PubDate},
	); err != nil {
		return domain.Article{}, fmt.Errorf("malformed article: %w", err)
	}
	if err := validateURL(doc.WebURL.value); err != nil {
		return domain.Article{}, fmt.Errorf("malformed article %q: %w", doc.Headline.Main.value, err)
	}
	return domain.Article{
		Headline: doc.Headline.Main.value,
		Snippet:  doc.Snippet.value,
		WebURL:   doc.WebURL.value,
		PubDate:  doc.PubDate.value,
	}, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errMissingURL
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errBadURL
	}
	return nil
}
