package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"strategos-backend/internal/types"
)

const transcriptionTimeout = 180 * time.Second

// Transcriber turns recorded audio into text. A nil transcriber means the
// dictation capability is absent; the endpoint degrades to an unavailable
// no-op rather than an error.
type Transcriber interface {
	Transcribe(ctx context.Context, r io.Reader, filename string) (string, error)
}

type whisperTranscriber struct {
	client *openai.Client
	model  string
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, r io.Reader, filename string) (string, error) {
	tr, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   r,
		FilePath: filename,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tr.Text), nil
}

func (s *Server) handleDictation(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.DictationResponse{Available: false})
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	sid := getOrCreateSessionID(r, w, "")
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "audio file is required (field 'file')")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), transcriptionTimeout)
	defer cancel()

	transcript, err := s.transcriber.Transcribe(ctx, file, header.Filename)
	if err != nil {
		log.Printf("[dictation] transcription failed: %v", err)
		s.writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	s.metrics.Dictations.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(types.DictationResponse{
		Available:  true,
		Transcript: transcript,
	})
}

func (s *Server) handleDictationStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.DictationStatusResponse{
		Available: s.transcriber != nil,
	})
}
