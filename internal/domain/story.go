package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TopStory представляет отдельную статью из ленты Top Stories для одной рубрики.
type TopStory struct {
	Title         string `json:"title"`
	Section       string `json:"section"`
	URL           string `json:"url"`
	Abstract      string `json:"abstract"`
	PublishedDate string `json:"published_date"`
}

// Article представляет найденную статью из Article Search API.
type Article struct {
	Headline string `json:"headline"`
	Snippet  string `json:"snippet"`
	WebURL   string `json:"web_url"`
	PubDate  string `json:"pub_date"`
}

// SearchQuery содержит параметры поиска статей.
// Даты, если заданы, передаются в формате YYYYMMDD.
type SearchQuery struct {
	Q         string
	BeginDate string
	EndDate   string
}

// Ошибки валидации параметров поиска.
var (
	ErrMissingQuery = errors.New("query parameter 'q' is required")
	ErrInvalidDate  = errors.New("date must be in YYYYMMDD format")
)

const searchDateLayout = "20060102"

// Validate проверяет, что q не пуст, а даты (если заданы) имеют формат YYYYMMDD.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Q) == "" {
		return ErrMissingQuery
	}
	dates := [][2]string{{"begin_date", q.BeginDate}, {"end_date", q.EndDate}}
	for _, d := range dates {
		if d[1] == "" {
			continue
		}
		if _, err := time.Parse(searchDateLayout, d[1]); err != nil || len(d[1]) != len(searchDateLayout) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidDate, d[0], d[1])
		}
	}
	return nil
}
