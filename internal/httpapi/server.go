// Package httpapi exposes the Ventia HTTP surface: the NLP endpoints that
// turn spoken Spanish into structured sales, speech-to-text and
// text-to-speech proxies, product and sale management, and the operational
// endpoints (/healthz, /readyz, /metrics).
//
// The server is a plain net/http mux. Authentication is optional: when an
// auth service is configured, the business routes require a Bearer token
// and /api/auth/login issues them; without one the API is open, which is
// the single-shop deployment mode.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emiliovps/ventia/internal/auth"
	"github.com/emiliovps/ventia/internal/catalog"
	"github.com/emiliovps/ventia/internal/health"
	"github.com/emiliovps/ventia/internal/interpret"
	"github.com/emiliovps/ventia/internal/observe"
	"github.com/emiliovps/ventia/internal/sales"
	"github.com/emiliovps/ventia/pkg/provider/stt"
	"github.com/emiliovps/ventia/pkg/provider/tts"
)

// defaultMaxBodyBytes bounds JSON request bodies. Audio uploads get a
// separate, larger bound.
const (
	defaultMaxBodyBytes  = 1 << 20  // 1 MiB
	defaultMaxAudioBytes = 32 << 20 // 32 MiB
)

// Server holds the handler dependencies and builds the route table.
type Server struct {
	interpreter *interpret.Interpreter
	products    catalog.Store
	sales       *sales.Service
	auth        *auth.Service
	stt         stt.Provider
	tts         tts.Provider
	ttsVoice    tts.Voice
	metrics     *observe.Metrics
	health      *health.Handler

	maxBodyBytes  int64
	maxAudioBytes int64
}

// Option is a functional option for [New].
type Option func(*Server)

// WithAuth enables Bearer-token authentication on the business routes and
// mounts the login endpoint.
func WithAuth(a *auth.Service) Option {
	return func(s *Server) { s.auth = a }
}

// WithSTT mounts the transcription endpoints backed by p.
func WithSTT(p stt.Provider) Option {
	return func(s *Server) { s.stt = p }
}

// WithTTS mounts the synthesis endpoint backed by p. voice is the default
// voice used when a request names none.
func WithTTS(p tts.Provider, voice tts.Voice) Option {
	return func(s *Server) {
		s.tts = p
		s.ttsVoice = voice
	}
}

// WithMetrics wraps all routes in the observability middleware and records
// pipeline metrics from the handlers.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth mounts the liveness and readiness endpoints.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMaxBodyBytes overrides the JSON request body limit.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// New creates a Server over the interpretation pipeline and the product and
// sale stores. Optional subsystems are attached via options.
func New(interpreter *interpret.Interpreter, products catalog.Store, salesSvc *sales.Service, opts ...Option) *Server {
	s := &Server{
		interpreter:   interpreter,
		products:      products,
		sales:         salesSvc,
		maxBodyBytes:  defaultMaxBodyBytes,
		maxAudioBytes: defaultMaxAudioBytes,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes builds the full route table. The returned handler is safe for
// concurrent use.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Operational endpoints are never behind auth.
	if s.health != nil {
		s.health.Register(mux)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.auth != nil {
		mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	}

	// NLP pipeline.
	mux.Handle("POST /nlp/interpret", s.protect(http.HandlerFunc(s.handleInterpret)))
	mux.Handle("POST /nlp/sale", s.protect(http.HandlerFunc(s.handleVoiceSale)))
	mux.Handle("POST /nlp/tts", s.protect(http.HandlerFunc(s.handleTTS)))

	// Speech.
	mux.Handle("POST /api/transcribe", s.protect(http.HandlerFunc(s.handleTranscribe)))
	mux.Handle("GET /api/realtime/ws", s.protect(http.HandlerFunc(s.handleRealtime)))

	// Products.
	mux.Handle("GET /api/products", s.protect(http.HandlerFunc(s.handleProductList)))
	mux.Handle("POST /api/products", s.protect(http.HandlerFunc(s.handleProductCreate)))
	mux.Handle("GET /api/products/{id}", s.protect(http.HandlerFunc(s.handleProductGet)))
	mux.Handle("PUT /api/products/{id}", s.protect(http.HandlerFunc(s.handleProductUpdate)))
	mux.Handle("DELETE /api/products/{id}", s.protect(http.HandlerFunc(s.handleProductDelete)))

	// Sales.
	mux.Handle("GET /api/sales", s.protect(http.HandlerFunc(s.handleSaleList)))
	mux.Handle("POST /api/sales", s.protect(http.HandlerFunc(s.handleSaleCreate)))
	mux.Handle("GET /api/sales/summary", s.protect(http.HandlerFunc(s.handleSaleSummary)))
	mux.Handle("GET /api/sales/{id}", s.protect(http.HandlerFunc(s.handleSaleGet)))
	mux.Handle("DELETE /api/sales/{id}", s.protect(http.HandlerFunc(s.handleSaleDelete)))

	var h http.Handler = mux
	if s.metrics != nil {
		h = observe.Middleware(s.metrics)(h)
	}
	return h
}

// protect wraps h in the auth middleware when authentication is enabled.
func (s *Server) protect(h http.Handler) http.Handler {
	if s.auth == nil {
		return h
	}
	return auth.Middleware(s.auth)(h)
}
