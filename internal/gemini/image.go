package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
)

// aspectRatio is the fixed hint sent with every image-generation request.
const aspectRatio = "16:9"

type ImageResult struct {
	Data     []byte
	MIMEType string
}

// GenerateImage issues an image-generation request carrying only the raw
// prompt and the fixed aspect-ratio hint. No system instruction, no history.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	body := imageRequest{
		Instances:  []imageInstance{{Prompt: prompt}},
		Parameters: imageParameters{SampleCount: 1, AspectRatio: aspectRatio},
	}

	var resp imageResponse
	url := fmt.Sprintf("%s/models/%s:predict", c.baseURL, c.imageModel)
	if err := c.doJSON(ctx, url, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, fmt.Errorf("gemini: no image in response")
	}
	pred := resp.Predictions[0]
	data, err := base64.StdEncoding.DecodeString(pred.BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("gemini: decode image payload: %w", err)
	}
	mime := pred.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &ImageResult{Data: data, MIMEType: mime}, nil
}

func decodeInline(blob *InlineData) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("gemini: decode inline %s payload: %w", blob.MIMEType, err)
	}
	return data, nil
}
