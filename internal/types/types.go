package types

import "strategos-backend/internal/store"

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Scheme    string `json:"scheme"`
	// Optional browser-supplied coordinates for maps-scheme requests; when
	// absent the server attempts a best-effort IP lookup instead.
	Location *Location `json:"location,omitempty"`
}

type ChatResponse struct {
	SessionID string        `json:"sessionId"`
	Index     int           `json:"index"`
	Message   store.Message `json:"message"`
}

type SpeakRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text,omitempty"`
	// When set, text is resolved from (and audio memoized onto) the message
	// at this transcript index.
	MessageIndex *int `json:"messageIndex,omitempty"`
}

type DictationResponse struct {
	Available  bool   `json:"available"`
	Transcript string `json:"transcript,omitempty"`
}

type DictationStatusResponse struct {
	Available bool `json:"available"`
}

type ContextRequest struct {
	Company  string `json:"company"`
	Industry string `json:"industry"`
	Market   string `json:"market"`
}

type TranscriptResponse struct {
	SessionID string          `json:"sessionId"`
	Messages  []store.Message `json:"messages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
