package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"strategos-backend/internal/audio"
	"strategos-backend/internal/types"
)

const (
	speechTimeout = 60 * time.Second

	// spokenLabel prefixes every synthesized excerpt.
	spokenLabel = "Strategic briefing: "
	// speakExcerptLimit bounds how much of a reply is synthesized.
	speakExcerptLimit = 800
)

// handleSpeak synthesizes speech for a reply and returns it as audio/wav.
// When a message index is supplied, the raw PCM payload is memoized onto that
// message and later speak calls for it short-circuit the provider entirely.
// Speak calls are not serialized; overlapping playback is the client's call.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req types.SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := getOrCreateSessionID(r, w, req.SessionID)

	text := req.Text
	var cached []byte
	if req.MessageIndex != nil {
		msg, ok := s.store.MessageAt(sid, *req.MessageIndex)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown message index")
			return
		}
		if strings.TrimSpace(text) == "" {
			text = msg.Text
		}
		cached = msg.AudioData
	}
	if strings.TrimSpace(text) == "" {
		s.writeError(w, http.StatusBadRequest, "nothing to speak")
		return
	}

	pcm := cached
	if len(pcm) == 0 {
		ctx, cancel := context.WithTimeout(r.Context(), speechTimeout)
		defer cancel()

		start := time.Now()
		synthesized, err := s.provider.GenerateSpeech(ctx, spokenLabel+excerpt(text, speakExcerptLimit))
		s.metrics.ProviderCallDuration.WithLabelValues("speech").Observe(time.Since(start).Seconds())
		if err != nil {
			log.Printf("[speak] synthesis failed: %v", err)
			s.metrics.ProviderErrors.WithLabelValues("speech").Inc()
			s.writeError(w, http.StatusBadGateway, "speech synthesis failed")
			return
		}
		s.metrics.SpeechSyntheses.Inc()
		pcm = synthesized

		if req.MessageIndex != nil {
			if err := s.store.SetAudioData(sid, *req.MessageIndex, pcm); err != nil {
				log.Printf("[speak] could not cache audio: %v", err)
			}
		}
	} else {
		s.metrics.SpeechCacheHits.Inc()
	}

	wav, err := audio.EncodeWAV(pcm, audio.SampleRate)
	if err != nil {
		log.Printf("[speak] wav encode failed: %v", err)
		s.writeError(w, http.StatusBadGateway, "audio encoding failed")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Session-Id", sid)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

// excerpt returns the first limit runes of text.
func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
