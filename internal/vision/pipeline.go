// Package vision runs the tagging pipeline over uploaded images: object
// detection for tags, OCR for embedded text, and a spelling-correction
// pass with a token-overlap acceptance rule.
package vision

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"go-image-gallery/internal/logger"
)

// NotRecognized is the placeholder for text that OCR could not make sense of.
const NotRecognized = "not recognized"

// minAcceptedLength is the shortest extracted/corrected text worth keeping.
const minAcceptedLength = 10

// minTokenOverlap is the share of original tokens that must survive a
// correction pass for the corrected text to be trusted.
const minTokenOverlap = 0.30

// Result is the outcome of processing one image.
type Result struct {
	Tags  []string
	Texts []TextRegion
	Text  string
}

// Pipeline combines detection, recognition and correction. Storage of the
// result is the caller's responsibility.
type Pipeline struct {
	detector   ObjectDetector
	recognizer TextRecognizer
	corrector  Corrector
	threshold  float64
}

// NewPipeline creates a tagging pipeline. Detections below threshold are
// discarded.
func NewPipeline(detector ObjectDetector, recognizer TextRecognizer, corrector Corrector, threshold float64) *Pipeline {
	return &Pipeline{
		detector:   detector,
		recognizer: recognizer,
		corrector:  corrector,
		threshold:  threshold,
	}
}

// Process runs both models concurrently and normalizes their output. On a
// model failure the partial result is still returned alongside the error so
// the caller can keep what succeeded.
func (p *Pipeline) Process(ctx context.Context, image []byte) (Result, error) {
	var (
		wg         sync.WaitGroup
		detections []Detection
		regions    []TextRegion
		detectErr  error
		ocrErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		detections, detectErr = p.detector.Detect(ctx, image)
	}()
	go func() {
		defer wg.Done()
		regions, ocrErr = p.recognizer.Recognize(ctx, image)
	}()
	wg.Wait()

	result := Result{
		Tags:  NormalizeLabels(detections, p.threshold),
		Texts: regions,
	}
	result.Text = ResolveText(joinRegions(regions), p.corrector)

	if detectErr != nil || ocrErr != nil {
		logger.WithFields(logrus.Fields{
			"detect_err": detectErr,
			"ocr_err":    ocrErr,
		}).Error("Pipeline model invocation failed")
		return result, errors.Join(detectErr, ocrErr)
	}

	logger.WithFields(logrus.Fields{
		"tags":         len(result.Tags),
		"text_regions": len(result.Texts),
	}).Info("Image processed")
	return result, nil
}

// NormalizeLabels keeps labels at or above the confidence threshold,
// lowercased and de-duplicated in first-seen order.
func NormalizeLabels(detections []Detection, threshold float64) []string {
	seen := make(map[string]struct{}, len(detections))
	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		if d.Confidence < threshold {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(d.Label))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// CollapseWhitespace reduces whitespace runs to single spaces and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ResolveText applies the correction acceptance rule to raw OCR output:
// the corrected variant wins only when it keeps at least 30% of the
// original tokens and is longer than 10 characters; otherwise the cleaned
// original is used when it is longer than 10 characters and has more than
// 2 tokens; otherwise the text counts as not recognized. Empty input stays
// empty.
func ResolveText(raw string, corrector Corrector) string {
	cleaned := CollapseWhitespace(raw)
	if cleaned == "" {
		return ""
	}

	if corrector != nil {
		corrected := CollapseWhitespace(corrector.Correct(cleaned))
		if acceptCorrection(cleaned, corrected) {
			return corrected
		}
	}

	if len(cleaned) > minAcceptedLength && len(strings.Fields(cleaned)) > 2 {
		return cleaned
	}
	return NotRecognized
}

func acceptCorrection(original, corrected string) bool {
	if len(corrected) <= minAcceptedLength {
		return false
	}

	originalTokens := strings.Fields(strings.ToLower(original))
	if len(originalTokens) == 0 {
		return false
	}

	correctedSet := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(corrected)) {
		correctedSet[tok] = struct{}{}
	}

	kept := 0
	for _, tok := range originalTokens {
		if _, ok := correctedSet[tok]; ok {
			kept++
		}
	}
	return float64(kept)/float64(len(originalTokens)) >= minTokenOverlap
}

func joinRegions(regions []TextRegion) string {
	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, " ")
}
