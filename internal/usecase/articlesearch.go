package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"nytimes/internal/domain"
)

// ArticleSearchUseCase выполняет поиск статей одним запросом к upstream.
type ArticleSearchUseCase struct {
	fetcher JSONFetcher
	parser  ArticlesParser
	log     *slog.Logger
	baseURL string
	apiKey  string
}

func NewArticleSearchUseCase(fetcher JSONFetcher, parser ArticlesParser, log *slog.Logger, baseURL, apiKey string) *ArticleSearchUseCase {
	return &ArticleSearchUseCase{
		fetcher: fetcher,
		parser:  parser,
		log:     log.With(slog.String("component", "article-search")),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Search возвращает статьи, найденные по запросу. В отличие от top stories,
// отказ upstream пробрасывается вызывающему: запасного источника нет.
// query должен быть уже проверен через SearchQuery.Validate.
func (uc *ArticleSearchUseCase) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Article, error) {
	endpoint, err := url.JoinPath(uc.baseURL, "search", "v2", "articlesearch.json")
	if err != nil {
		return nil, fmt.Errorf("failed to build search url: %w", err)
	}
	params := url.Values{
		"q":         {query.Q},
		apiKeyParam: {uc.apiKey},
	}
	if query.BeginDate != "" {
		params.Set("begin_date", query.BeginDate)
	}
	if query.EndDate != "" {
		params.Set("end_date", query.EndDate)
	}
	data, err := uc.fetcher.GetJSON(ctx, endpoint, params)
	if err != nil {
		uc.log.Error("Article search failed", slog.Any("error", err))
		return nil, fmt.Errorf("article search: %w", err)
	}
	articles, err := uc.parser.ParseArticles(data)
	if err != nil {
		uc.log.Error("Article search response could not be decoded", slog.Any("error", err))
		return nil, fmt.Errorf("article search: %w", err)
	}
	uc.log.Info("Article search completed", slog.Int("count", len(articles)))
	return articles, nil
}
