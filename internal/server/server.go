package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"

	"strategos-backend/internal/config"
	"strategos-backend/internal/gemini"
	"strategos-backend/internal/geo"
	"strategos-backend/internal/metrics"
	"strategos-backend/internal/scheme"
	"strategos-backend/internal/store"
	"strategos-backend/internal/types"
)

// Provider is the generative backend the orchestrator talks to.
// *gemini.Client satisfies it; tests substitute fakes.
type Provider interface {
	GenerateContent(ctx context.Context, req gemini.ChatRequest) (*gemini.ChatResult, error)
	GenerateImage(ctx context.Context, prompt string) (*gemini.ImageResult, error)
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}

type Server struct {
	router      *chi.Mux
	cfg         config.Config
	store       *store.MemoryStore
	schemes     *scheme.Registry
	provider    Provider
	transcriber Transcriber
	locator     geo.Locator
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
}

func NewServer(cfg config.Config) (*Server, error) {
	schemes := scheme.NewRegistry()
	if err := schemes.LoadFile(cfg.SchemeFile); err != nil {
		return nil, fmt.Errorf("failed to load scheme registry: %w", err)
	}

	provider := gemini.NewClient(cfg.GeminiAPIKey, gemini.Options{
		ChatModel:  cfg.ChatModel,
		ImageModel: cfg.ImageModel,
		TTSModel:   cfg.TTSModel,
		TTSVoice:   cfg.TTSVoice,
	})

	var transcriber Transcriber
	if cfg.OpenAIAPIKey != "" {
		transcriber = &whisperTranscriber{
			client: openai.NewClient(cfg.OpenAIAPIKey),
			model:  cfg.STTModel,
		}
	} else {
		log.Println("[dictation] no OpenAI key configured; dictation disabled")
	}

	var locator geo.Locator
	if cfg.GeoEnabled {
		locator = geo.NewIPLocator(cfg.GeoEndpoint)
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		router:      chi.NewRouter(),
		cfg:         cfg,
		store:       store.NewMemoryStore(),
		schemes:     schemes,
		provider:    provider,
		transcriber: transcriber,
		locator:     locator,
		metrics:     metrics.New(registry),
		registry:    registry,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true, // Enable credentials for cookies
		MaxAge:           300,
	}))

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/schemes", s.handleSchemes)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/transcript", s.handleTranscript)
	s.router.Post("/api/context", s.handleContext)
	s.router.Post("/api/speak", s.handleSpeak)
	s.router.Post("/api/dictation", s.handleDictation)
	s.router.Get("/api/dictation/status", s.handleDictationStatus)
	if s.cfg.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.schemes.All())
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sid := getOrCreateSessionID(r, w, "")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(types.TranscriptResponse{
		SessionID: sid,
		Messages:  s.store.Get(sid),
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req types.ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := getOrCreateSessionID(r, w, "")
	// No validation: empty strings are legal context values.
	s.store.SetProjectContext(sid, store.ProjectContext{
		Company:  req.Company,
		Industry: req.Industry,
		Market:   req.Market,
	})
	w.Header().Set("X-Session-Id", sid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}

func newSessionID() string {
	return "s_" + uuid.NewString()
}

// getSessionID retrieves the session ID from cookie, header, or query.
func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return ""
}

// getOrCreateSessionID gets the session ID (preferring an explicit body
// value) or creates a new one, setting the cookie.
func getOrCreateSessionID(r *http.Request, w http.ResponseWriter, bodySID string) string {
	sid := bodySID
	if sid == "" {
		sid = getSessionID(r)
	}
	if sid == "" {
		sid = newSessionID()
		log.Printf("[session] creating new session: %s for endpoint: %s", sid, r.URL.Path)
		SetSessionCookie(w, sid)
	}
	return sid
}
