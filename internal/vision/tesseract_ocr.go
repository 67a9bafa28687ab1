package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseractRecognizer extracts text line regions with Tesseract. A fresh
// client is created per call since gosseract clients are not safe for
// concurrent use.
type tesseractRecognizer struct {
	languages []string
}

// NewTesseractRecognizer creates an OCR recognizer for the given languages.
func NewTesseractRecognizer(languages []string) TextRecognizer {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &tesseractRecognizer{languages: languages}
}

func (r *tesseractRecognizer) Recognize(ctx context.Context, image []byte) ([]TextRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return nil, fmt.Errorf("set OCR languages: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("load image for OCR: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       text,
			Confidence: box.Confidence / 100.0, // tesseract reports 0-100
			BBox:       []int{box.Box.Min.X, box.Box.Min.Y, box.Box.Max.X, box.Box.Max.Y},
		})
	}
	return regions, nil
}
