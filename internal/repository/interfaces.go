package repository

import "context"

// MetadataRepository defines data access for image records, tags and
// detected text.
type MetadataRepository interface {
	// CreateImage stores a new image record with its OCR text regions.
	// The filename is de-duplicated with a _N suffix when already taken.
	CreateImage(ctx context.Context, filename, storedKey string, texts []DetectedText) (*Image, error)

	// AttachTags links the named tags to the image, creating missing Tag
	// rows. Idempotent: already-linked names are skipped.
	AttachTags(ctx context.Context, imageID uint, names []string) error

	// GetImage returns the image with its tags, or ErrImageNotFound.
	GetImage(ctx context.Context, id uint) (*Image, error)

	// Search returns one page of images plus a has-more hint. A query
	// starting with '#' selects an exact tag; anything else matches
	// filename, tag names and detected text by substring.
	Search(ctx context.Context, query string, page, perPage int) ([]Image, bool, error)

	// ListTags returns all tags with image counts, ordered by name.
	ListTags(ctx context.Context) ([]TagCount, error)

	// Suggest returns autocomplete candidates for a partial query,
	// exact-prefix matches ranked before substring matches.
	Suggest(ctx context.Context, query string, limit int) ([]string, error)

	// TextsForImage returns the image's OCR regions, highest confidence
	// first, or ErrImageNotFound.
	TextsForImage(ctx context.Context, imageID uint) ([]DetectedText, error)
}
