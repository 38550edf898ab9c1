package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"strategos-backend/internal/gemini"
	"strategos-backend/internal/scheme"
	"strategos-backend/internal/store"
	"strategos-backend/internal/types"
)

const (
	chatTimeout = 120 * time.Second
	geoTimeout  = 2 * time.Second
)

// handleChat is the request orchestrator: it validates input, holds the
// per-session in-flight guard, dispatches on the active scheme's tool
// binding, and appends exactly one model message — flagged as an error when
// the provider call fails.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := getOrCreateSessionID(r, w, req.SessionID)

	userText := strings.TrimSpace(req.Message)
	if userText == "" {
		s.metrics.ChatRejected.Inc()
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sch, ok := s.schemes.Get(req.Scheme)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scheme %q", req.Scheme))
		return
	}

	// At most one in-flight send per session; a concurrent attempt is a
	// silent no-op, not an error.
	if !s.store.TryBeginSend(sid) {
		s.metrics.ChatRejected.Inc()
		w.Header().Set("X-Session-Id", sid)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	defer s.store.EndSend(sid)

	s.metrics.ChatRequests.WithLabelValues(sch.ID).Inc()

	// History window is captured before the optimistic user append so the new
	// turn is not duplicated in the provider contents.
	history := s.store.LastN(sid, s.cfg.HistoryWindow)
	s.store.Append(sid, store.Message{
		Role:      store.RoleUser,
		Text:      userText,
		Timestamp: time.Now(),
	})

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	reply := s.orchestrate(ctx, r, sid, userText, sch, req.Location, history)
	idx := s.store.Append(sid, reply)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(types.ChatResponse{SessionID: sid, Index: idx, Message: reply})
}

func (s *Server) orchestrate(ctx context.Context, r *http.Request, sid, userText string, sch scheme.Scheme, loc *types.Location, history []store.Message) store.Message {
	if sch.Tool == scheme.ToolImage {
		// Image schemes send only the raw prompt with the fixed aspect hint:
		// no system instruction, no history, no grounding tools.
		start := time.Now()
		img, err := s.provider.GenerateImage(ctx, userText)
		s.metrics.ProviderCallDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
		if err != nil {
			log.Printf("[chat] image generation failed: %v", err)
			s.metrics.ProviderErrors.WithLabelValues("image").Inc()
			return errorMessage(err)
		}
		return store.Message{
			Role:      store.RoleModel,
			Text:      "Concept rendered.",
			Timestamp: time.Now(),
			ImageURL:  dataURI(img.MIMEType, img.Data),
		}
	}

	budget := s.cfg.ThinkingBudget
	creq := gemini.ChatRequest{
		Contents:          toContents(history, userText),
		SystemInstruction: buildSystemInstruction(sch.Instruction, s.store.ProjectContext(sid)),
		ThinkingBudget:    &budget,
	}
	switch sch.Tool {
	case scheme.ToolSearch:
		creq.Tools = []gemini.Tool{{GoogleSearch: &gemini.GoogleSearchTool{}}}
	case scheme.ToolMaps:
		creq.Tools = []gemini.Tool{{GoogleMaps: &gemini.GoogleMapsTool{}}}
		// Geolocation is attempted first and is strictly best-effort: on
		// failure the request goes out without a location bias.
		creq.LatLng = s.resolveLocation(ctx, r, loc)
	}

	start := time.Now()
	res, err := s.provider.GenerateContent(ctx, creq)
	s.metrics.ProviderCallDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("[chat] provider call failed: %v", err)
		s.metrics.ProviderErrors.WithLabelValues("chat").Inc()
		return errorMessage(err)
	}

	msg := store.Message{
		Role:      store.RoleModel,
		Text:      res.Text,
		Timestamp: time.Now(),
	}
	if len(res.ImageData) > 0 {
		msg.ImageURL = dataURI(res.ImageMIME, res.ImageData)
	}
	for _, c := range res.Citations {
		msg.Grounding = append(msg.Grounding, store.Citation{URI: c.URI, Title: c.Title})
	}
	return msg
}

func (s *Server) resolveLocation(ctx context.Context, r *http.Request, loc *types.Location) *gemini.LatLng {
	if loc != nil {
		return &gemini.LatLng{Latitude: loc.Latitude, Longitude: loc.Longitude}
	}
	if s.locator == nil {
		return nil
	}
	gctx, cancel := context.WithTimeout(ctx, geoTimeout)
	defer cancel()
	ll, err := s.locator.Locate(gctx, clientIP(r))
	if err != nil {
		log.Printf("[chat] geolocation unavailable: %v", err)
		return nil
	}
	return &gemini.LatLng{Latitude: ll.Latitude, Longitude: ll.Longitude}
}

// buildSystemInstruction substitutes the scheme instruction and the project
// context fields into the fixed template sentence.
func buildSystemInstruction(instruction string, pc store.ProjectContext) string {
	return fmt.Sprintf(
		"%s\n\nProject context: the company is %q, operating in the %q industry, targeting the %q market.",
		instruction, pc.Company, pc.Industry, pc.Market,
	)
}

func toContents(history []store.Message, userText string) []gemini.Content {
	out := make([]gemini.Content, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		out = append(out, gemini.Content{
			Role:  m.Role,
			Parts: []gemini.Part{{Text: m.Text}},
		})
	}
	out = append(out, gemini.Content{
		Role:  store.RoleUser,
		Parts: []gemini.Part{{Text: userText}},
	})
	return out
}

func errorMessage(err error) store.Message {
	return store.Message{
		Role:      store.RoleModel,
		Text:      fmt.Sprintf("Request failed: %v", err),
		IsError:   true,
		Timestamp: time.Now(),
	}
}

func dataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
