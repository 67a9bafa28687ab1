package transport

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-image-gallery/internal/config"
	apperrors "go-image-gallery/internal/errors"
	"go-image-gallery/internal/logger"
	"go-image-gallery/internal/service"
	"go-image-gallery/internal/web"
	"go-image-gallery/pkg/models"
)

// NewHandler builds the HTTP handler: REST API plus the embedded frontend.
func NewHandler(svc service.GalleryService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	api := r.Group("/api")
	{
		api.POST("/upload", uploadImage(svc))
		api.GET("/images", searchImages(svc))
		api.GET("/images/:id", getImage(svc))
		api.GET("/images/:id/file", getImageFile(svc))
		api.GET("/images/:id/download", downloadImage(svc))
		api.GET("/images/:id/thumbnail", getThumbnail(svc))
		api.GET("/images/:id/text", getImageText(svc))
		api.GET("/tags", listTags(svc))
		api.GET("/suggestions", getSuggestions(svc))
		api.POST("/correct_text", correctText(svc))
	}

	r.GET("/health", healthCheck)
	web.RegisterStaticRoutes(r)

	return r
}

func uploadImage(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "no file provided", err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid file", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read file", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"filename": fileHeader.Filename,
			"size":     len(data),
			"ip":       c.ClientIP(),
		}).Info("Processing upload")

		resp, err := svc.Upload(c.Request.Context(), fileHeader.Filename, data)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "upload failed", err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func searchImages(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := intQuery(c, "page", 1)
		perPage := intQuery(c, "per_page", 0)

		resp, err := svc.Search(c.Request.Context(), c.Query("q"), page, perPage)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "search failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getImage(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := imageID(c)
		if !ok {
			return
		}
		summary, err := svc.GetImage(c.Request.Context(), id)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func getImageFile(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := imageID(c)
		if !ok {
			return
		}
		_, data, err := svc.ImageFile(c.Request.Context(), id)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image fetch failed", err)
			return
		}
		c.Data(http.StatusOK, http.DetectContentType(data), data)
	}
}

func downloadImage(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := imageID(c)
		if !ok {
			return
		}
		filename, data, err := svc.ImageFile(c.Request.Context(), id)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "download failed", err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, http.DetectContentType(data), data)
	}
}

func getThumbnail(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := imageID(c)
		if !ok {
			return
		}
		thumb, err := svc.Thumbnail(c.Request.Context(), id)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "thumbnail failed", err)
			return
		}
		c.Header("Cache-Control", "max-age=86400")
		c.Data(http.StatusOK, "image/jpeg", thumb)
	}
}

func getImageText(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := imageID(c)
		if !ok {
			return
		}
		text, err := svc.ExtractedText(c.Request.Context(), id)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "text lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, models.TextResponse{Text: text})
	}
}

func listTags(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags, err := svc.ListTags(c.Request.Context())
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to list tags", err)
			return
		}
		c.JSON(http.StatusOK, tags)
	}
}

func getSuggestions(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		suggestions, err := svc.Suggest(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to get suggestions", err)
			return
		}
		if suggestions == nil {
			suggestions = []string{}
		}
		c.JSON(http.StatusOK, suggestions)
	}
}

func correctText(svc service.GalleryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CorrectTextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		c.JSON(http.StatusOK, models.TextResponse{Text: svc.CorrectText(req.Text)})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// imageID parses the :id path parameter, responding 400 on garbage.
func imageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid image id", err)
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
