package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrTypeNotAllowed is returned for MIME types outside the allow-list.
	ErrTypeNotAllowed = errors.New("file type is not allowed")
	// ErrTooLarge is returned when the payload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrNotFound is returned when a stored file does not exist.
	ErrNotFound = errors.New("file not found")
)

// allowedMIMEs is the upload allow-list: images, documents, text,
// archives, audio and video.
var allowedMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},

	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.ms-powerpoint": {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},

	"text/plain": {},
	"text/csv":   {},

	"application/zip":              {},
	"application/x-rar-compressed": {},
	"application/x-7z-compressed":  {},

	"audio/mpeg": {},
	"audio/wav":  {},
	"audio/ogg":  {},

	"video/mp4":  {},
	"video/webm": {},
	"video/ogg":  {},
}

// categories maps file extensions to the coarse category embedded in
// message attachments.
var categories = map[string]string{
	".jpg": "image", ".jpeg": "image", ".png": "image", ".gif": "image", ".webp": "image",
	".pdf":  "pdf",
	".doc":  "document", ".docx": "document",
	".xls":  "spreadsheet", ".xlsx": "spreadsheet",
	".ppt":  "presentation", ".pptx": "presentation",
	".txt":  "text", ".csv": "text",
	".zip":  "archive", ".rar": "archive", ".7z": "archive",
	".mp3":  "audio", ".wav": "audio", ".ogg": "audio",
	".mp4":  "video", ".webm": "video", ".ogv": "video",
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileInfo describes a stored upload. URL is the retrieval path served
// by the HTTP layer.
type FileInfo struct {
	Name         string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	Size         int64     `json:"size"`
	Category     string    `json:"type"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadDate"`
}

// Service stores uploads on local disk and hands out descriptors that
// the chat core embeds into messages verbatim.
type Service struct {
	dir      string
	maxBytes int64
	log      *zerolog.Logger
}

// NewService creates the upload directory if needed.
func NewService(dir string, maxBytes int64, logger *zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{dir: dir, maxBytes: maxBytes, log: logger}, nil
}

// Dir returns the storage directory, for static file serving.
func (s *Service) Dir() string {
	return s.dir
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates and stores one upload, returning its descriptor. The
// stored name is "<unix-millis>_<sanitized-base><ext>" so names never
// collide with earlier uploads of the same file.
func (s *Service) Save(originalName, contentType string, r io.Reader) (*FileInfo, error) {
	if _, ok := allowedMIMEs[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
	}

	stored := storedName(originalName)
	path := filepath.Join(s.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(path)
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, s.maxBytes)
	}

	s.log.Info().Str("file", stored).Int64("size", written).Msg("file stored")

	return &FileInfo{
		Name:         stored,
		OriginalName: originalName,
		Size:         written,
		Category:     Category(stored),
		URL:          "/uploads/" + stored,
		UploadedAt:   time.Now(),
	}, nil
}

// Info describes an already-stored file by name.
func (s *Service) Info(name string) (*FileInfo, error) {
	name = filepath.Base(name)
	stat, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		return nil, ErrNotFound
	}
	return &FileInfo{
		Name:       name,
		Size:       stat.Size(),
		Category:   Category(name),
		URL:        "/uploads/" + name,
		UploadedAt: stat.ModTime(),
	}, nil
}

// Delete removes a stored file by name.
func (s *Service) Delete(name string) error {
	name = filepath.Base(name)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return ErrNotFound
	}
	return nil
}

// Category maps a filename to its coarse attachment category.
func Category(name string) string {
	if category, ok := categories[strings.ToLower(filepath.Ext(name))]; ok {
		return category
	}
	return "unknown"
}

func storedName(originalName string) string {
	base := filepath.Base(filepath.Clean(originalName))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." || stem == ".." {
		stem = "unnamed"
	}
	stem = unsafeChars.ReplaceAllString(stem, "_")
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), stem, strings.ToLower(ext))
}
