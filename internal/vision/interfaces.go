package vision

import "context"

// Detection is one object found by the detection model.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        []int   `json:"box,omitempty"` // [x1, y1, x2, y2]
}

// TextRegion is one text area found by the recognition model.
type TextRegion struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       []int   `json:"bbox,omitempty"`
}

// ObjectDetector finds labeled objects in an image.
type ObjectDetector interface {
	Detect(ctx context.Context, image []byte) ([]Detection, error)
}

// TextRecognizer extracts embedded text from an image.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) ([]TextRegion, error)
}

// Corrector runs a spelling-correction pass over extracted text.
type Corrector interface {
	Correct(text string) string
}
