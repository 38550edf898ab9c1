package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategos-backend/internal/store"
	"strategos-backend/internal/types"
)

func intPtr(i int) *int { return &i }

func TestSpeakFreeText(t *testing.T) {
	pcm := []byte{0x00, 0x10, 0x00, 0x20}
	p := &fakeProvider{speechResult: pcm}
	s := newTestServer(t, p, nil, nil)

	rec := postJSON(t, s, "/api/speak", types.SpeakRequest{
		SessionID: "s_test", Text: "Expand into the DACH market first.",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))

	wav := rec.Body.Bytes()
	require.Greater(t, len(wav), 44)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, pcm, wav[44:])
	assert.Equal(t, 1, p.speechCalls)
}

func TestSpeakPrefixesSpokenLabel(t *testing.T) {
	var spoken string
	p := &fakeProvider{}
	s := newTestServer(t, p, nil, nil)
	// Capture what the provider is asked to say.
	s.provider = providerFunc{fakeProvider: p, onSpeech: func(text string) { spoken = text }}

	rec := postJSON(t, s, "/api/speak", types.SpeakRequest{
		SessionID: "s_test", Text: "Open three pilot stores.",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Strategic briefing: Open three pilot stores.", spoken)
}

func TestSpeakMessageIndexMemoizes(t *testing.T) {
	p := &fakeProvider{speechResult: []byte{1, 2, 3, 4}}
	s := newTestServer(t, p, nil, nil)
	s.store.Append("s_test", store.Message{Role: store.RoleModel, Text: "the reply"})

	rec := postJSON(t, s, "/api/speak", types.SpeakRequest{
		SessionID: "s_test", MessageIndex: intPtr(0),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.speechCalls)

	msg, ok := s.store.MessageAt("s_test", 0)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, msg.AudioData, "raw PCM memoized onto the message")

	// Second call for the same message short-circuits the provider.
	rec = postJSON(t, s, "/api/speak", types.SpeakRequest{
		SessionID: "s_test", MessageIndex: intPtr(0),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, p.speechCalls, "cached audio skips synthesis")
}

func TestSpeakUnknownMessageIndex(t *testing.T) {
	p := &fakeProvider{}
	s := newTestServer(t, p, nil, nil)

	rec := postJSON(t, s, "/api/speak", types.SpeakRequest{
		SessionID: "s_test", MessageIndex: intPtr(5),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, p.speechCalls)
}

func TestSpeakNothingToSpeak(t *testing.T) {
	p := &fakeProvider{}
	s := newTestServer(t, p, nil, nil)

	rec := postJSON(t, s, "/api/speak", types.SpeakRequest{SessionID: "s_test"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, p.speechCalls)
}

func TestSpeakSynthesisFailure(t *testing.T) {
	p := &fakeProvider{speechErr: errors.New("voice unavailable")}
	s := newTestServer(t, p, nil, nil)

	rec := postJSON(t, s, "/api/speak", types.SpeakRequest{
		SessionID: "s_test", Text: "hello",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSpeakExcerptBound(t *testing.T) {
	var spoken string
	p := &fakeProvider{}
	s := newTestServer(t, p, nil, nil)
	s.provider = providerFunc{fakeProvider: p, onSpeech: func(text string) { spoken = text }}

	long := strings.Repeat("x", 2000)
	rec := postJSON(t, s, "/api/speak", types.SpeakRequest{SessionID: "s_test", Text: long})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, spoken, len(spokenLabel)+speakExcerptLimit)
}

// providerFunc wraps fakeProvider to observe the synthesized text.
type providerFunc struct {
	*fakeProvider
	onSpeech func(text string)
}

func (p providerFunc) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	if p.onSpeech != nil {
		p.onSpeech(text)
	}
	return p.fakeProvider.GenerateSpeech(ctx, text)
}

func TestDictationUnavailable(t *testing.T) {
	s := newTestServer(t, &fakeProvider{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/dictation", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "missing capability degrades, not errors")
	assert.JSONEq(t, `{"available":false}`, rec.Body.String())
}

func TestDictation(t *testing.T) {
	s := newTestServer(t, &fakeProvider{}, nil, &fakeTranscriber{transcript: "expand into new markets"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "note.webm")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-audio"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dictation", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.DictationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Available)
	assert.Equal(t, "expand into new markets", resp.Transcript)
}

func TestDictationFailure(t *testing.T) {
	s := newTestServer(t, &fakeProvider{}, nil, &fakeTranscriber{err: errors.New("model overloaded")})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "note.webm")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-audio"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dictation", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDictationMissingFile(t *testing.T) {
	s := newTestServer(t, &fakeProvider{}, nil, &fakeTranscriber{transcript: "x"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dictation", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
