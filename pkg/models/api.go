// Package models defines the request and response shapes of the gallery API.
package models

// TagRef is a tag reference inside an image summary.
type TagRef struct {
	Name string `json:"name"`
}

// ImageURLs points the client at the binary endpoints for an image.
type ImageURLs struct {
	Thumbnail string `json:"thumbnail"`
	Download  string `json:"download"`
	File      string `json:"file"`
}

// ImageSummary describes one image in listings and detail responses.
type ImageSummary struct {
	ID        uint      `json:"id"`
	Filename  string    `json:"filename"`
	CreatedAt string    `json:"created_at"`
	URLs      ImageURLs `json:"urls"`
	Tags      []TagRef  `json:"tags"`
}

// SearchResponse is one page of images. HasMore is a page-fullness hint,
// not an exact count.
type SearchResponse struct {
	Images  []ImageSummary `json:"images"`
	HasMore bool           `json:"has_more"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// UploadResponse acknowledges a processed upload.
type UploadResponse struct {
	ID       uint     `json:"id"`
	Filename string   `json:"filename"`
	Tags     []TagRef `json:"tags"`
}

// TextResponse carries the extracted text of an image.
type TextResponse struct {
	Text string `json:"text"`
}

// CorrectTextRequest is the body of POST /api/correct_text.
type CorrectTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ErrorResponse is the JSON error body for all failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
