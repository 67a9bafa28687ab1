package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-image-gallery/internal/logger"
)

const defaultPerPage = 12

// gormMetadataRepository implements MetadataRepository on GORM/SQLite.
type gormMetadataRepository struct {
	db *gorm.DB
}

// OpenDatabase opens (or creates) the SQLite database and migrates the schema.
func OpenDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Image{}, &Tag{}, &DetectedText{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// NewMetadataRepository creates a GORM-backed metadata repository.
func NewMetadataRepository(db *gorm.DB) MetadataRepository {
	return &gormMetadataRepository{db: db}
}

func (r *gormMetadataRepository) CreateImage(ctx context.Context, filename, storedKey string, texts []DetectedText) (*Image, error) {
	tx := r.db.WithContext(ctx)

	unique, err := r.uniqueFilename(tx, filename)
	if err != nil {
		return nil, err
	}

	image := &Image{
		Filename:  unique,
		StoredKey: storedKey,
		Texts:     texts,
	}
	if err := tx.Create(image).Error; err != nil {
		return nil, fmt.Errorf("create image record: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"image_id": image.ID,
		"filename": image.Filename,
		"texts":    len(texts),
	}).Info("Image record created")
	return image, nil
}

// uniqueFilename resolves collisions with name_1.ext, name_2.ext, ...
func (r *gormMetadataRepository) uniqueFilename(tx *gorm.DB, filename string) (string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	candidate := filename
	for counter := 1; ; counter++ {
		var count int64
		if err := tx.Model(&Image{}).Where("filename = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check filename: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		if counter > 10000 {
			return "", ErrDuplicateFilename
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

func (r *gormMetadataRepository) AttachTags(ctx context.Context, imageID uint, names []string) error {
	tx := r.db.WithContext(ctx)

	var image Image
	if err := tx.First(&image, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("load image %d: %w", imageID, err)
	}

	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		tag, err := r.insertOrGetTag(tx, name)
		if err != nil {
			return err
		}

		// Append upserts the join row, so re-attaching a linked tag is a no-op.
		if err := tx.Model(&image).Association("Tags").Append(tag); err != nil {
			return fmt.Errorf("link tag %q to image %d: %w", name, imageID, err)
		}
	}
	return nil
}

// insertOrGetTag creates the tag row, falling back to a re-fetch when a
// concurrent upload won the unique-constraint race on the same new name.
func (r *gormMetadataRepository) insertOrGetTag(tx *gorm.DB, name string) (*Tag, error) {
	tag := Tag{Name: name}
	err := tx.Where("name = ?", name).FirstOrCreate(&tag).Error
	if err == nil {
		return &tag, nil
	}

	tag = Tag{}
	if ferr := tx.Where("name = ?", name).First(&tag).Error; ferr == nil {
		return &tag, nil
	}
	return nil, fmt.Errorf("insert-or-get tag %q: %w", name, err)
}

func (r *gormMetadataRepository) GetImage(ctx context.Context, id uint) (*Image, error) {
	var image Image
	err := r.db.WithContext(ctx).Preload("Tags").First(&image, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load image %d: %w", id, err)
	}
	return &image, nil
}

func (r *gormMetadataRepository) Search(ctx context.Context, query string, page, perPage int) ([]Image, bool, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	q := r.db.WithContext(ctx).Model(&Image{}).Preload("Tags").
		Order("images.created_at DESC").Order("images.id DESC")

	query = strings.TrimSpace(query)
	switch {
	case query == "":
		// unfiltered listing
	case strings.HasPrefix(query, "#"):
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(query, "#")))
		q = q.Joins("JOIN image_tags ON image_tags.image_id = images.id").
			Joins("JOIN tags ON tags.id = image_tags.tag_id").
			Where("tags.name = ?", name)
	default:
		pattern := "%" + strings.ToLower(query) + "%"
		tagged := r.db.Table("image_tags").
			Select("image_tags.image_id").
			Joins("JOIN tags ON tags.id = image_tags.tag_id").
			Where("tags.name LIKE ?", pattern)
		texted := r.db.Table("detected_texts").
			Select("detected_texts.image_id").
			Where("LOWER(detected_texts.text) LIKE ?", pattern)
		q = q.Where("LOWER(images.filename) LIKE ? OR images.id IN (?) OR images.id IN (?)",
			pattern, tagged, texted)
	}

	var images []Image
	if err := q.Offset((page - 1) * perPage).Limit(perPage).Find(&images).Error; err != nil {
		return nil, false, fmt.Errorf("search images: %w", err)
	}

	// A full page hints that more may follow; cheaper than a count query.
	hasMore := len(images) == perPage
	return images, hasMore, nil
}

func (r *gormMetadataRepository) ListTags(ctx context.Context) ([]TagCount, error) {
	var counts []TagCount
	err := r.db.WithContext(ctx).Table("tags").
		Select("tags.name AS name, COUNT(image_tags.image_id) AS count").
		Joins("LEFT JOIN image_tags ON image_tags.tag_id = tags.id").
		Group("tags.name").
		Order("tags.name ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return counts, nil
}

func (r *gormMetadataRepository) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	tagsOnly := strings.HasPrefix(query, "#")
	needle := strings.ToLower(strings.TrimPrefix(query, "#"))
	if needle == "" {
		return nil, nil
	}
	pattern := "%" + needle + "%"
	tx := r.db.WithContext(ctx)

	var candidates []string
	var tagNames []string
	if err := tx.Model(&Tag{}).Where("name LIKE ?", pattern).Pluck("name", &tagNames).Error; err != nil {
		return nil, fmt.Errorf("suggest tags: %w", err)
	}
	if tagsOnly {
		for _, name := range tagNames {
			candidates = append(candidates, "#"+name)
		}
	} else {
		candidates = append(candidates, tagNames...)
		var filenames []string
		if err := tx.Model(&Image{}).Where("LOWER(filename) LIKE ?", pattern).Pluck("filename", &filenames).Error; err != nil {
			return nil, fmt.Errorf("suggest filenames: %w", err)
		}
		candidates = append(candidates, filenames...)
	}

	return rankSuggestions(candidates, needle, limit), nil
}

// rankSuggestions orders candidates exact-prefix first, alphabetically
// within each rank, de-duplicated and capped.
func rankSuggestions(candidates []string, needle string, limit int) []string {
	seen := make(map[string]struct{}, len(candidates))
	unique := candidates[:0]
	for _, c := range candidates {
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}

	hasPrefix := func(s string) bool {
		return strings.HasPrefix(strings.ToLower(strings.TrimPrefix(s, "#")), needle)
	}
	sort.Slice(unique, func(i, j int) bool {
		pi, pj := hasPrefix(unique[i]), hasPrefix(unique[j])
		if pi != pj {
			return pi
		}
		return strings.ToLower(unique[i]) < strings.ToLower(unique[j])
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

func (r *gormMetadataRepository) TextsForImage(ctx context.Context, imageID uint) ([]DetectedText, error) {
	tx := r.db.WithContext(ctx)

	var count int64
	if err := tx.Model(&Image{}).Where("id = ?", imageID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check image %d: %w", imageID, err)
	}
	if count == 0 {
		return nil, ErrImageNotFound
	}

	var texts []DetectedText
	err := tx.Where("image_id = ?", imageID).
		Order("confidence DESC").
		Find(&texts).Error
	if err != nil {
		return nil, fmt.Errorf("load texts for image %d: %w", imageID, err)
	}
	return texts, nil
}
