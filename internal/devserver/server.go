// Package devserver is an in-memory implementation of the course backend
// contract, meant for local development and integration tests.
package devserver

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"course-admin/internal/logging"
)

const (
	maxUploadBytes = 5 << 20
	uploadsRoute   = "/uploads"
)

type Config struct {
	// UploadDir is where uploaded images are written. Created if missing.
	UploadDir string
	// PublicURL prefixes returned image URLs ("http://localhost:3000").
	// When empty the URL is derived from the incoming request.
	PublicURL string
	Logger    *slog.Logger
}

type Server struct {
	cfg    Config
	logger *slog.Logger
	store  *memStore
	engine *gin.Engine
}

type courseBody struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

func New(cfg Config) (*Server, error) {
	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(os.TempDir(), "course-admin-uploads")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("devserver: create upload dir: %w", err)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	s := &Server{
		cfg:    cfg,
		logger: logging.OrNop(cfg.Logger),
		store:  newMemStore(),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

// Seed inserts records as if they had been created through the API.
func (s *Server) Seed(records ...Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, s.store.create(r))
	}
	return out
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Static(uploadsRoute, s.cfg.UploadDir)

	api := r.Group("/api", brotliMiddleware())
	api.GET("/course", s.listCourses)
	api.POST("/course", s.createCourse)
	api.POST("/course/upload", s.uploadImage)
	api.PUT("/course/:id", s.updateCourse)
	api.DELETE("/course/:id", s.deleteCourse)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"success": true, "message": message, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message, "data": nil})
}

func (s *Server) listCourses(c *gin.Context) {
	ok(c, http.StatusOK, "Courses fetched successfully", s.store.list())
}

func (s *Server) createCourse(c *gin.Context) {
	body, good := bindCourse(c)
	if !good {
		return
	}
	rec := s.store.create(recordFrom(body))
	ok(c, http.StatusCreated, "Course created successfully", rec)
}

func (s *Server) updateCourse(c *gin.Context) {
	id, good := courseID(c)
	if !good {
		return
	}
	body, good := bindCourse(c)
	if !good {
		return
	}
	rec, err := s.store.update(id, recordFrom(body))
	if err != nil {
		fail(c, http.StatusNotFound, "Course not found")
		return
	}
	ok(c, http.StatusOK, "Course updated successfully", rec)
}

func (s *Server) deleteCourse(c *gin.Context) {
	id, good := courseID(c)
	if !good {
		return
	}
	if err := s.store.delete(id); err != nil {
		fail(c, http.StatusNotFound, "Course not found")
		return
	}
	ok(c, http.StatusOK, "Course deleted successfully", nil)
}

func (s *Server) uploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "Image file is required")
		return
	}
	if file.Size > maxUploadBytes {
		fail(c, http.StatusBadRequest, "Image is too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "Could not read image")
		return
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(src, head)
	src.Close()
	ext, isImage := imageExt(http.DetectContentType(head[:n]))
	if !isImage {
		fail(c, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	// the stored extension follows the sniffed type, never the client name
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(s.cfg.UploadDir, name)); err != nil {
		s.logger.Error("save upload failed", "error", err)
		fail(c, http.StatusInternalServerError, "Could not store image")
		return
	}

	ok(c, http.StatusOK, "Image uploaded successfully", gin.H{
		"imageUrl": s.publicBase(c) + uploadsRoute + "/" + name,
	})
}

var imageExts = map[string]string{
	"image/png":    ".png",
	"image/jpeg":   ".jpg",
	"image/gif":    ".gif",
	"image/webp":   ".webp",
	"image/bmp":    ".bmp",
	"image/x-icon": ".ico",
}

// imageExt maps a sniffed content type to the extension files are served with.
func imageExt(contentType string) (string, bool) {
	ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if !strings.HasPrefix(ct, "image/") {
		return "", false
	}
	if ext, ok := imageExts[ct]; ok {
		return ext, true
	}
	if exts, err := mime.ExtensionsByType(ct); err == nil && len(exts) > 0 {
		return exts[0], true
	}
	return "", false
}

func (s *Server) publicBase(c *gin.Context) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func bindCourse(c *gin.Context) (courseBody, bool) {
	var body courseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return body, false
	}
	if strings.TrimSpace(body.Name) == "" {
		fail(c, http.StatusBadRequest, "Course name is required")
		return body, false
	}
	if body.Price < 0 {
		fail(c, http.StatusBadRequest, "Price must be non-negative")
		return body, false
	}
	return body, true
}

func courseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid course id")
		return 0, false
	}
	return id, true
}

func recordFrom(b courseBody) Record {
	return Record{
		Name:        strings.TrimSpace(b.Name),
		Description: b.Description,
		Price:       b.Price,
		Image:       b.Image,
	}
}

// SampleCatalog is a small catalog for demos.
func SampleCatalog() []Record {
	return []Record{
		{Name: "Intro to Go", Description: "Types, functions and the standard library.", Price: 49.99},
		{Name: "Concurrency in Go", Description: "Goroutines, channels and the sync package.", Price: 69},
		{Name: "Web APIs with Gin", Description: "Routing, binding and middleware.", Price: 39.5},
	}
}
