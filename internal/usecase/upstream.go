package usecase

import (
	"context"
	"encoding/json"
	"net/url"
	"nytimes/internal/domain"
)

// JSONFetcher определяет интерфейс получения JSON-документа от upstream API.
// Реализация отвечает за повторные попытки и возвращает *domain.UpstreamError при отказе.
type JSONFetcher interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values) (json.RawMessage, error)
}

// TopStoriesParser преобразует ответ Top Stories API в доменные записи.
type TopStoriesParser interface {
	ParseTopStories(data []byte, limit int) ([]domain.TopStory, error)
}

// ArticlesParser преобразует ответ Article Search API в доменные записи.
type ArticlesParser interface {
	ParseArticles(data []byte) ([]domain.Article, error)
}

const apiKeyParam = "api-key"
