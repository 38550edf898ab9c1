package gemini

import (
	"context"
	"fmt"
	"strings"

	"strategos-backend/internal/audio"
)

// GenerateSpeech synthesizes text with the configured prebuilt voice and
// returns raw little-endian PCM-16 bytes at audio.SampleRate.
func (c *Client) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	body := generateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: text}}}},
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &SpeechConfig{
				VoiceConfig: &VoiceConfig{
					PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: c.ttsVoice},
				},
			},
		},
	}

	var resp generateContentResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.ttsModel)
	if err := c.doJSON(ctx, url, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: speech response has no candidates")
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
			continue
		}
		pcm, err := audio.DecodeBase64PCM16(p.InlineData.Data)
		if err != nil {
			return nil, err
		}
		if len(pcm) == 0 {
			return nil, fmt.Errorf("gemini: empty speech payload")
		}
		return pcm, nil
	}
	return nil, fmt.Errorf("gemini: no audio part in speech response")
}
