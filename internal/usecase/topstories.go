package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"nytimes/internal/domain"
	"time"

	"golang.org/x/sync/errgroup"
)

// Categories - фиксированный список рубрик, из которых собираются top stories.
var Categories = []string{"arts", "food", "movies", "travel", "science"}

// StoriesPerCategory - максимальное число историй от одной рубрики.
const StoriesPerCategory = 2

// TopStoriesResult содержит собранные истории и рубрики, которые не удалось получить.
type TopStoriesResult struct {
	Stories          []domain.TopStory
	FailedCategories []string
}

// TopStoriesUseCase собирает по две последние истории из каждой рубрики.
// Отказ одной рубрики не влияет на остальные.
type TopStoriesUseCase struct {
	fetcher     JSONFetcher
	parser      TopStoriesParser
	log         *slog.Logger
	baseURL     string
	apiKey      string
	fanOutLimit int
}

func NewTopStoriesUseCase(
	fetcher JSONFetcher,
	parser TopStoriesParser,
	log *slog.Logger,
	baseURL string,
	apiKey string,
	fanOutLimit int,
) *TopStoriesUseCase {
	if fanOutLimit < 1 {
		fanOutLimit = 1
	}
	return &TopStoriesUseCase{
		fetcher:     fetcher,
		parser:      parser,
		log:         log.With(slog.String("component", "top-stories")),
		baseURL:     baseURL,
		apiKey:      apiKey,
		fanOutLimit: fanOutLimit,
	}
}

type categoryResult struct {
	stories []domain.TopStory
	err     error
}

// GetTopStories опрашивает все рубрики параллельно (не более fanOutLimit одновременно)
// и возвращает истории в порядке рубрик. Ошибки рубрик логируются и никогда не возвращаются.
func (uc *TopStoriesUseCase) GetTopStories(ctx context.Context) TopStoriesResult {
	start := time.Now()
	results := make([]categoryResult, len(Categories))
	var g errgroup.Group
	g.SetLimit(uc.fanOutLimit)
	for i, category := range Categories {
		g.Go(func() error {
			results[i] = uc.fetchCategory(ctx, category)
			return nil
		})
	}
	_ = g.Wait()

	out := TopStoriesResult{Stories: make([]domain.TopStory, 0, len(Categories)*StoriesPerCategory)}
	for i, res := range results {
		if res.err != nil {
			uc.log.Error("Failed to fetch top stories for category",
				slog.String("category", Categories[i]),
				slog.Any("error", res.err),
			)
			out.FailedCategories = append(out.FailedCategories, Categories[i])
			continue
		}
		out.Stories = append(out.Stories, res.stories...)
	}
	uc.log.Info("Top stories collected",
		slog.Int("count", len(out.Stories)),
		slog.Int("failed_categories", len(out.FailedCategories)),
		slog.Duration("duration", time.Since(start)),
	)
	return out
}

func (uc *TopStoriesUseCase) fetchCategory(ctx context.Context, category string) (res categoryResult) {
	defer func() {
		if r := recover(); r != nil {
			res = categoryResult{err: fmt.Errorf("panic while processing category %s: %v", category, r)}
		}
	}()
	endpoint, err := url.JoinPath(uc.baseURL, "topstories", "v2", category+".json")
	if err != nil {
		return categoryResult{err: fmt.Errorf("failed to build url for %s: %w", category, err)}
	}
	data, err := uc.fetcher.GetJSON(ctx, endpoint, url.Values{apiKeyParam: {uc.apiKey}})
	if err != nil {
		return categoryResult{err: fmt.Errorf("fetch failed for %s: %w", category, err)}
	}
	stories, err := uc.parser.ParseTopStories(data, StoriesPerCategory)
	if err != nil {
		return categoryResult{err: fmt.Errorf("parse failed for %s: %w", category, err)}
	}
	uc.log.Debug("Category processed",
		slog.String("category", category),
		slog.Int("items", len(stories)),
	)
	return categoryResult{stories: stories}
}
