// Package obs carries the ambient observability stack: zerolog request
// logging and Prometheus metrics.
package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// NewLogger configures a zerolog logger using the provided format and level.
// Format "console" or "text" selects the human readable writer.
func NewLogger(format, level string) zerolog.Logger {
	return newLogger(os.Stdout, format, level)
}

func newLogger(w io.Writer, format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := w
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// RequestLogger records one structured line per request and attaches a
// request-scoped logger (zerolog.Ctx) carrying the request id.
// Metrics is optional.
type RequestLogger struct {
	Logger  zerolog.Logger
	Metrics *HTTPMetrics
}

// Middleware must wrap the ServeMux directly so the matched pattern is
// visible once the handler returns.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if reqID == "" || len(reqID) > 64 {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		info := &requestInfo{id: reqID}
		reqLog := l.Logger.With().Str("request_id", reqID).Logger()
		ctx := reqLog.WithContext(withRequestInfo(r.Context(), info))
		r2 := r.WithContext(ctx)

		recorder := NewStatusRecorder(w)
		if l.Metrics != nil {
			l.Metrics.InFlight.Inc()
		}
		start := time.Now()
		next.ServeHTTP(recorder, r2)
		duration := time.Since(start)

		route := r2.Pattern
		if route == "" {
			route = "unmatched"
		}
		if l.Metrics != nil {
			l.Metrics.InFlight.Dec()
			l.Metrics.Observe(r.Method, route, recorder.Status(), duration)
		}

		evt := reqLog.Info()
		if recorder.Status() >= http.StatusInternalServerError {
			evt = reqLog.Error()
		}
		evt = evt.
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", recorder.Status()).
			Int64("duration_ms", duration.Milliseconds()).
			Int64("bytes", recorder.BytesWritten())
		if info.userID != 0 {
			evt = evt.Uint("user_id", info.userID)
		}
		if ip := strings.TrimSpace(r.RemoteAddr); ip != "" {
			evt = evt.Str("remote_addr", ip)
		}
		if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
			evt = evt.Str("user_agent", ua)
		}
		evt.Msg("http_request")
	})
}

// StatusRecorder wraps ResponseWriter to capture status code and bytes written.
type StatusRecorder struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
}

// NewStatusRecorder constructs a status recorder with default 200 status.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *StatusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *StatusRecorder) Write(p []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(p)
	sr.bytesWritten += int64(n)
	return n, err
}

func (sr *StatusRecorder) Status() int { return sr.status }

func (sr *StatusRecorder) BytesWritten() int64 { return sr.bytesWritten }

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *StatusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }
