package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"nytimes/internal/domain"
	"nytimes/internal/metrics"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var errInvalidJSON = errors.New("response body is not valid JSON")

// maxBackoffDelay ограничивает рост задержки между попытками.
const maxBackoffDelay = time.Minute

// RetryPolicy задает политику повторных попыток при обращении к upstream.
// Задержки между попытками строит NewBackOff.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	Timeout       time.Duration
}

// DefaultRetryPolicy возвращает политику по умолчанию: 3 попытки,
// задержки 1s и 2s, таймаут одной попытки 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		BackoffFactor: 2,
		Timeout:       10 * time.Second,
	}
}

// NewBackOff возвращает расписание задержек для одного вызова без случайного разброса:
// BaseDelay, BaseDelay*BackoffFactor, ... но не больше max(maxBackoffDelay, BaseDelay).
func (p RetryPolicy) NewBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = p.BackoffFactor
	bo.MaxInterval = max(maxBackoffDelay, p.BaseDelay)
	return bo
}

// SleepFunc приостанавливает вызывающую горутину на d или до отмены ctx.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option настраивает HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient заменяет HTTP-клиент, используемый для запросов.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithSleep заменяет функцию ожидания между попытками.
func WithSleep(s SleepFunc) Option {
	return func(f *HTTPFetcher) { f.sleep = s }
}

// HTTPFetcher выполняет GET-запросы к upstream API с повторными попытками
// и экспоненциальной задержкой при 429, 5xx и сетевых ошибках.
// Не хранит состояния между вызовами: счетчик попыток локален для каждого вызова.
type HTTPFetcher struct {
	client *http.Client
	log    *slog.Logger
	policy RetryPolicy
	sleep  SleepFunc
}

// NewHTTPFetcher создает новый экземпляр HTTPFetcher.
func NewHTTPFetcher(log *slog.Logger, policy RetryPolicy, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{},
		log:    log.With(slog.String("component", "fetcher")),
		policy: policy,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.policy.MaxAttempts < 1 {
		f.policy.MaxAttempts = 1
	}
	return f
}

// GetJSON выполняет GET-запрос по rawURL с параметрами params и возвращает тело
// ответа как JSON-документ. В случае отказа возвращает *domain.UpstreamError.
func (f *HTTPFetcher) GetJSON(ctx context.Context, rawURL string, params url.Values) (json.RawMessage, error) {
	const op = "adapter.fetcher.GetJSON"
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, f.fail(op, "", start, &domain.UpstreamError{Kind: domain.KindTransport, Err: err})
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	endpoint := u.Path
	log := f.log.With(slog.String("op", op), slog.String("endpoint", endpoint))

	bo := f.policy.NewBackOff()
	var lastStatus int
	var lastErr error
	for attempt := 0; attempt < f.policy.MaxAttempts; attempt++ {
		body, status, err := f.do(ctx, u.String())
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				metrics.RecordAttempt(endpoint, "canceled")
				return nil, f.fail(op, endpoint, start, &domain.UpstreamError{
					Kind: domain.KindTransport, Attempts: attempt + 1, Err: ctxErr,
				})
			}
			metrics.RecordAttempt(endpoint, "transport_error")
			lastStatus, lastErr = 0, err
		case status == http.StatusTooManyRequests:
			metrics.RecordAttempt(endpoint, "rate_limited")
			lastStatus, lastErr = status, nil
		case status >= http.StatusInternalServerError:
			metrics.RecordAttempt(endpoint, "server_error")
			lastStatus, lastErr = status, nil
		case status < 200 || status >= 300:
			metrics.RecordAttempt(endpoint, "client_error")
			return nil, f.fail(op, endpoint, start, &domain.UpstreamError{
				Kind: domain.KindClientError, Status: status, Attempts: attempt + 1,
			})
		default:
			if !json.Valid(body) {
				metrics.RecordAttempt(endpoint, "invalid_body")
				return nil, f.fail(op, endpoint, start, &domain.UpstreamError{
					Kind: domain.KindUpstreamUnavailable, Status: status, Attempts: attempt + 1, Err: errInvalidJSON,
				})
			}
			metrics.RecordAttempt(endpoint, "success")
			metrics.RecordFetch(endpoint, "", time.Since(start).Seconds())
			log.Debug("Upstream request succeeded",
				slog.Int("attempts", attempt+1),
				slog.Duration("duration", time.Since(start)),
			)
			return json.RawMessage(body), nil
		}

		if attempt+1 >= f.policy.MaxAttempts {
			break
		}
		wait := bo.NextBackOff()
		attrs := []any{
			slog.Int("retry", attempt+1),
			slog.Duration("wait", wait),
		}
		if lastErr != nil {
			attrs = append(attrs, slog.Any("error", lastErr))
		} else {
			attrs = append(attrs, slog.Int("status_code", lastStatus))
		}
		log.Warn("Upstream request failed, retrying", attrs...)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, f.fail(op, endpoint, start, &domain.UpstreamError{
				Kind: domain.KindTransport, Status: lastStatus, Attempts: attempt + 1, Err: err,
			})
		}
	}

	kind := domain.KindUpstreamUnavailable
	if lastStatus == http.StatusTooManyRequests {
		kind = domain.KindRateLimitExceeded
	}
	return nil, f.fail(op, endpoint, start, &domain.UpstreamError{
		Kind: kind, Status: lastStatus, Attempts: f.policy.MaxAttempts, Err: lastErr,
	})
}

// do выполняет одну попытку запроса. Ошибка возвращается только если ответ
// не получен или его тело не удалось прочитать; тело закрывается всегда.
func (f *HTTPFetcher) do(ctx context.Context, target string) ([]byte, int, error) {
	if f.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.policy.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// дочитываем тело, чтобы соединение вернулось в пул
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (f *HTTPFetcher) fail(op, endpoint string, start time.Time, err *domain.UpstreamError) error {
	metrics.RecordFetch(endpoint, err.Kind.String(), time.Since(start).Seconds())
	f.log.Error("Upstream request failed",
		slog.String("op", op),
		slog.String("endpoint", endpoint),
		slog.String("kind", err.Kind.String()),
		slog.Int("attempts", err.Attempts),
		slog.Any("error", err),
	)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
