package domain

import (
	"errors"
	"fmt"
)

// Ошибки upstream API, используются с errors.Is.
var (
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("service unavailable after retries")
	ErrClientError         = errors.New("upstream rejected request")
	ErrTransport           = errors.New("upstream transport failure")
)

// ErrorKind - закрытый перечень причин отказа при обращении к upstream.
type ErrorKind int

const (
	KindRateLimitExceeded ErrorKind = iota + 1
	KindUpstreamUnavailable
	KindClientError
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimitExceeded:
		return "rate_limit_exceeded"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindClientError:
		return "client_error"
	case KindTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindRateLimitExceeded:
		return ErrRateLimitExceeded
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindClientError:
		return ErrClientError
	case KindTransport:
		return ErrTransport
	default:
		return nil
	}
}

// UpstreamError описывает окончательный отказ запроса к upstream.
// Status равен 0, если ответ не был получен.
type UpstreamError struct {
	Kind     ErrorKind
	Status   int
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	msg := e.Kind.String()
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s after %d attempt(s)", msg, e.Attempts)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is позволяет сравнивать ошибку с сентинелами ErrRateLimitExceeded и т.д.
func (e *UpstreamError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf возвращает вид ошибки upstream или 0, если err не является UpstreamError.
func KindOf(err error) ErrorKind {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return 0
}
