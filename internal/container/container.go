package container

import (
	"net/http"

	"gorm.io/gorm"

	"go-image-gallery/internal/config"
	apperrors "go-image-gallery/internal/errors"
	"go-image-gallery/internal/repository"
	"go-image-gallery/internal/service"
	"go-image-gallery/internal/speller"
	"go-image-gallery/internal/storage"
	"go-image-gallery/internal/transport"
	"go-image-gallery/internal/vision"
	"go-image-gallery/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config         *config.Config
	db             *gorm.DB
	imageStore     storage.ImageStore
	metadataRepo   repository.MetadataRepository
	pipeline       *vision.Pipeline
	galleryService service.GalleryService
	handler        http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	db, err := repository.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open database", err)
	}
	metadataRepo := repository.NewMetadataRepository(db)

	imageStore, err := newImageStore(cfg)
	if err != nil {
		return nil, err
	}

	detector, err := vision.NewOllamaDetector(cfg.OllamaURL, cfg.DetectionModel)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create detector", err)
	}
	recognizer := vision.NewTesseractRecognizer(cfg.OCRLanguages)

	corrector, err := speller.New(cfg.DictionaryPath)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load dictionary", err)
	}

	pipeline := vision.NewPipeline(detector, recognizer, corrector, cfg.DetectionConfidence)
	validator := validation.NewFileValidator(cfg.MaxRequestBodySize)

	galleryService := service.NewGalleryService(
		imageStore, metadataRepo, pipeline, corrector, validator,
		cfg.ThumbnailWidth, cfg.SuggestLimit, cfg.PageSize,
	)
	handler := transport.NewHandler(galleryService, cfg)

	return &Container{
		config:         cfg,
		db:             db,
		imageStore:     imageStore,
		metadataRepo:   metadataRepo,
		pipeline:       pipeline,
		galleryService: galleryService,
		handler:        handler,
	}, nil
}

func newImageStore(cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.StorageBackend {
	case config.StorageAzure:
		return storage.NewAzureStorage(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
	default:
		return storage.NewLocalStorage(cfg.UploadDir)
	}
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases held resources
func (c *Container) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
