package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp" // webp decode support for uploads

	apperrors "go-image-gallery/internal/errors"
	"go-image-gallery/internal/logger"
	"go-image-gallery/internal/repository"
	"go-image-gallery/internal/storage"
	"go-image-gallery/internal/vision"
	"go-image-gallery/pkg/models"
	"go-image-gallery/pkg/validation"
)

// GalleryService is the application-facing API of the gallery backend.
type GalleryService interface {
	// Upload stores the image, runs the tagging pipeline and persists the
	// results. A pipeline failure still stores the image with an empty
	// tag set rather than losing the upload.
	Upload(ctx context.Context, filename string, data []byte) (*models.UploadResponse, error)

	// Search returns one page of image summaries with a has-more hint.
	Search(ctx context.Context, query string, page, perPage int) (*models.SearchResponse, error)

	// GetImage returns the metadata summary for one image.
	GetImage(ctx context.Context, id uint) (*models.ImageSummary, error)

	// ImageFile returns the original filename and bytes for download.
	ImageFile(ctx context.Context, id uint) (string, []byte, error)

	// Thumbnail returns a JPEG thumbnail of the image.
	Thumbnail(ctx context.Context, id uint) ([]byte, error)

	// ExtractedText returns the image's OCR text after the correction
	// pass, or the not-recognized placeholder. Idempotent.
	ExtractedText(ctx context.Context, id uint) (string, error)

	// ListTags returns all tags with image counts.
	ListTags(ctx context.Context) ([]repository.TagCount, error)

	// Suggest returns capped autocomplete candidates.
	Suggest(ctx context.Context, query string) ([]string, error)

	// CorrectText runs the spelling corrector over arbitrary text.
	CorrectText(text string) string
}

type galleryService struct {
	store          storage.ImageStore
	repo           repository.MetadataRepository
	pipeline       *vision.Pipeline
	corrector      vision.Corrector
	validator      *validation.FileValidator
	thumbnailWidth int
	suggestLimit   int
	pageSize       int
}

// NewGalleryService wires the gallery service from its collaborators.
func NewGalleryService(
	store storage.ImageStore,
	repo repository.MetadataRepository,
	pipeline *vision.Pipeline,
	corrector vision.Corrector,
	validator *validation.FileValidator,
	thumbnailWidth, suggestLimit, pageSize int,
) GalleryService {
	return &galleryService{
		store:          store,
		repo:           repo,
		pipeline:       pipeline,
		corrector:      corrector,
		validator:      validator,
		thumbnailWidth: thumbnailWidth,
		suggestLimit:   suggestLimit,
		pageSize:       pageSize,
	}
}

func (s *galleryService) Upload(ctx context.Context, filename string, data []byte) (*models.UploadResponse, error) {
	if err := s.validator.ValidateUpload(filename, data); err != nil {
		return nil, err
	}

	key, err := s.store.Save(ctx, data, filename)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to store image", err)
	}

	result, procErr := s.pipeline.Process(ctx, data)
	if procErr != nil {
		// Keep the upload: store the image with whatever the pipeline
		// produced and surface the failure in the logs only.
		logger.WithError(procErr).WithField("filename", filename).
			Error("Pipeline failed, storing image without full results")
	}

	image, err := s.repo.CreateImage(ctx, filename, key, textRows(result.Texts))
	if err != nil {
		// Avoid an orphaned stored file when metadata persistence fails.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.WithError(delErr).WithField("key", key).Warn("Cleanup of stored image failed")
		}
		return nil, apperrors.NewStorageError("failed to persist image metadata", err)
	}

	tags := result.Tags
	if len(tags) > 0 {
		if err := s.repo.AttachTags(ctx, image.ID, tags); err != nil {
			logger.WithError(err).WithField("image_id", image.ID).Error("Failed to attach tags")
			tags = nil
		}
	}

	logger.WithFields(logrus.Fields{
		"image_id": image.ID,
		"filename": image.Filename,
		"tags":     len(tags),
	}).Info("Upload completed")

	return &models.UploadResponse{
		ID:       image.ID,
		Filename: image.Filename,
		Tags:     tagRefs(tags),
	}, nil
}

func (s *galleryService) Search(ctx context.Context, query string, page, perPage int) (*models.SearchResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.pageSize
	}

	images, hasMore, err := s.repo.Search(ctx, query, page, perPage)
	if err != nil {
		return nil, apperrors.NewStorageError("search failed", err)
	}

	summaries := make([]models.ImageSummary, 0, len(images))
	for i := range images {
		summaries = append(summaries, summarize(&images[i]))
	}
	return &models.SearchResponse{
		Images:  summaries,
		HasMore: hasMore,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (s *galleryService) GetImage(ctx context.Context, id uint) (*models.ImageSummary, error) {
	image, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return nil, wrapRepoError(err, id)
	}
	summary := summarize(image)
	return &summary, nil
}

func (s *galleryService) ImageFile(ctx context.Context, id uint) (string, []byte, error) {
	image, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return "", nil, wrapRepoError(err, id)
	}

	data, err := s.store.Read(ctx, image.StoredKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", nil, apperrors.NewNotFoundError("image file missing from storage", err)
	}
	if err != nil {
		return "", nil, apperrors.NewStorageError("failed to read image", err)
	}
	return image.Filename, data, nil
}

func (s *galleryService) Thumbnail(ctx context.Context, id uint) ([]byte, error) {
	_, data, err := s.ImageFile(ctx, id)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to decode image", err)
	}

	if img.Bounds().Dx() > s.thumbnailWidth {
		img = imaging.Resize(img, s.thumbnailWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, apperrors.NewProcessingError("failed to encode thumbnail", err)
	}
	return buf.Bytes(), nil
}

func (s *galleryService) ExtractedText(ctx context.Context, id uint) (string, error) {
	texts, err := s.repo.TextsForImage(ctx, id)
	if err != nil {
		return "", wrapRepoError(err, id)
	}

	var raw bytes.Buffer
	for _, t := range texts {
		raw.WriteString(t.Text)
		raw.WriteByte(' ')
	}

	resolved := vision.ResolveText(raw.String(), s.corrector)
	if resolved == "" {
		resolved = vision.NotRecognized
	}
	return resolved, nil
}

func (s *galleryService) ListTags(ctx context.Context) ([]repository.TagCount, error) {
	counts, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list tags", err)
	}
	return counts, nil
}

func (s *galleryService) Suggest(ctx context.Context, query string) ([]string, error) {
	suggestions, err := s.repo.Suggest(ctx, query, s.suggestLimit)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to get suggestions", err)
	}
	return suggestions, nil
}

func (s *galleryService) CorrectText(text string) string {
	return vision.CollapseWhitespace(s.corrector.Correct(text))
}

func wrapRepoError(err error, id uint) error {
	if errors.Is(err, repository.ErrImageNotFound) {
		return apperrors.NewNotFoundError(fmt.Sprintf("image %d not found", id), err)
	}
	return apperrors.NewStorageError("metadata lookup failed", err)
}

func summarize(image *repository.Image) models.ImageSummary {
	names := make([]string, 0, len(image.Tags))
	for _, tag := range image.Tags {
		names = append(names, tag.Name)
	}
	return models.ImageSummary{
		ID:        image.ID,
		Filename:  image.Filename,
		CreatedAt: image.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		URLs: models.ImageURLs{
			Thumbnail: fmt.Sprintf("/api/images/%d/thumbnail", image.ID),
			Download:  fmt.Sprintf("/api/images/%d/download", image.ID),
			File:      fmt.Sprintf("/api/images/%d/file", image.ID),
		},
		Tags: tagRefs(names),
	}
}

func tagRefs(names []string) []models.TagRef {
	refs := make([]models.TagRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, models.TagRef{Name: name})
	}
	return refs
}

func textRows(regions []vision.TextRegion) []repository.DetectedText {
	rows := make([]repository.DetectedText, 0, len(regions))
	for _, region := range regions {
		bbox := ""
		if len(region.BBox) > 0 {
			if b, err := json.Marshal(region.BBox); err == nil {
				bbox = string(b)
			}
		}
		rows = append(rows, repository.DetectedText{
			Text:       region.Text,
			Confidence: region.Confidence,
			BBox:       bbox,
		})
	}
	return rows
}
