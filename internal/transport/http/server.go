package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	topStoriesPath    = "/nytimes/topstories"
	articleSearchPath = "/nytimes/articlesearch"
	healthPath        = "/nytimes/health"
	metricsPath       = "/metrics"
)

// NewServer создает HTTP-обработчик с роутингом и middleware:
// CORS, request id, логирование и восстановление после паники.
func NewServer(log *slog.Logger, h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(topStoriesPath, h.getTopStories)
	mux.HandleFunc(articleSearchPath, h.searchArticles)
	mux.HandleFunc(healthPath, h.healthCheck)
	mux.Handle(metricsPath, promhttp.Handler())
	mux.HandleFunc("/", h.root)
	var handler http.Handler = mux
	handler = recoverMiddleware(log)(handler)
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware()(handler)
	handler = corsMiddleware()(handler)
	return handler
}
