package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"nytimes/internal/domain"
	"nytimes/internal/usecase"
	"strings"
)

// FailedCategoriesHeader перечисляет рубрики, которые не удалось получить от upstream.
const FailedCategoriesHeader = "X-Failed-Categories"

type topStoriesGetter interface {
	GetTopStories(ctx context.Context) usecase.TopStoriesResult
}

type articleSearcher interface {
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.Article, error)
}

type Handler struct {
	log        *slog.Logger
	topStories topStoriesGetter
	searcher   articleSearcher
}

func NewHandler(log *slog.Logger, topStories topStoriesGetter, searcher articleSearcher) *Handler {
	return &Handler{
		log:        log,
		topStories: topStories,
		searcher:   searcher,
	}
}

// getTopStories - хендлер для эндпоинта GET /nytimes/topstories
func (h *Handler) getTopStories(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getTopStories"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	res := h.topStories.GetTopStories(r.Context())
	if len(res.FailedCategories) > 0 {
		log.Warn("partial top stories response", slog.String("failed", strings.Join(res.FailedCategories, ",")))
		w.Header().Set(FailedCategoriesHeader, strings.Join(res.FailedCategories, ","))
	}
	respondWithJSON(w, http.StatusOK, res.Stories)
}

// searchArticles - хендлер для эндпоинта GET /nytimes/articlesearch?q=&begin_date=&end_date=
func (h *Handler) searchArticles(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/searchArticles"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	params := r.URL.Query()
	query := domain.SearchQuery{
		Q:         params.Get("q"),
		BeginDate: params.Get("begin_date"),
		EndDate:   params.Get("end_date"),
	}
	if err := query.Validate(); err != nil {
		log.Warn("invalid search parameters", slog.Any("error", err))
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	articles, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		code, message := statusForError(err)
		log.Error("Failed to search articles", slog.Int("status", code), slog.Any("error", err))
		respondWithError(w, code, message)
		return
	}
	respondWithJSON(w, http.StatusOK, articles)
}

// statusForError переводит ошибку в HTTP-статус. Детали внутренних ошибок клиенту не отдаются.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingQuery), errors.Is(err, domain.ErrInvalidDate):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, "Rate limit exceeded"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "Service unavailable after retries"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondWithError(w, http.StatusNotFound, "Not Found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "NYTimes Microservice is running."})
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
