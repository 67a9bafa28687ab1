package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const detectionPrompt = `Identify every distinct object in this image. Respond with JSON only, in this exact shape:
{"objects":[{"label":"<object class, one or two lowercase words>","confidence":<0.0-1.0>,"box":[x1,y1,x2,y2]}]}
Use pixel coordinates for box. If nothing is identifiable, respond {"objects":[]}.`

// ollamaDetector runs object detection through an Ollama vision model.
type ollamaDetector struct {
	client *api.Client
	model  string
}

// NewOllamaDetector creates a detector talking to the Ollama server at rawURL.
func NewOllamaDetector(rawURL, model string) (ObjectDetector, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &ollamaDetector{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (d *ollamaDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	streamFalse := false
	req := &api.ChatRequest{
		Model: d.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: detectionPrompt,
				Images:  []api.ImageData{api.ImageData(image)},
			},
		},
		Stream: &streamFalse,
		Format: json.RawMessage(`"json"`),
	}

	var content string
	err := d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}
	if content == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return parseDetections(content)
}

// parseDetections parses the JSON object list from the model response.
func parseDetections(raw string) ([]Detection, error) {
	raw = sanitizeModelJSON(raw)

	var payload struct {
		Objects []Detection `json:"objects"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// Models occasionally wrap the JSON in prose; slice to the outermost braces.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON in model response: %w", err)
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &payload); err2 != nil {
			return nil, fmt.Errorf("parse model response: %w", err2)
		}
	}
	return payload.Objects, nil
}

// sanitizeModelJSON removes markdown code fences from a model response.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	return strings.TrimSpace(raw)
}
