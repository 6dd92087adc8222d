// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
	"github.com/tomtom215/skillswap/internal/models"
)

const (
	// URLPrefix is the public path uploaded files are served under.
	URLPrefix = "/uploads/"

	// ThumbDir is the subdirectory holding image thumbnails.
	ThumbDir = "thumb"

	defaultMaxSize    = 10 << 20
	defaultThumbWidth = 300
	maxNameLength     = 100
)

// ErrEmptyFile is returned for a zero-byte upload.
var ErrEmptyFile = errors.New("empty file")

// Result describes a stored upload.
type Result struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Name         string `json:"-"`
	Size         int64  `json:"-"`
	ContentType  string `json:"-"`
}

// Store writes uploads to a directory on the local filesystem.
type Store struct {
	dir        string
	maxSize    int64
	thumbWidth int
}

// NewStore creates the upload directory and its thumbnail subdirectory.
func NewStore(cfg *config.UploadConfig) (*Store, error) {
	s := &Store{
		dir:        cfg.Dir,
		maxSize:    cfg.MaxSizeBytes,
		thumbWidth: cfg.ThumbWidth,
	}
	if s.dir == "" {
		s.dir = "uploads"
	}
	if s.maxSize <= 0 {
		s.maxSize = defaultMaxSize
	}
	if s.thumbWidth <= 0 {
		s.thumbWidth = defaultThumbWidth
	}
	if err := os.MkdirAll(filepath.Join(s.dir, ThumbDir), 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", s.dir, err)
	}
	return s, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// MaxSize returns the largest accepted upload in bytes.
func (s *Store) MaxSize() int64 { return s.maxSize }

// Save streams r to a new file named after original. Images get a
// thumbnail scaled to the configured width; a thumbnail failure is logged
// and does not fail the upload.
func (s *Store) Save(ctx context.Context, r io.Reader, original string) (*Result, error) {
	name := uuid.NewString() + "-" + SanitizeName(original)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		s.discard(f, path)
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxSize+1))
	if err != nil {
		s.discard(f, path)
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	if written == 0 {
		s.discard(f, path)
		return nil, models.NewValidationError("%s", ErrEmptyFile.Error())
	}
	if written > s.maxSize {
		s.discard(f, path)
		return nil, models.NewValidationError("file exceeds %d bytes", s.maxSize)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close %s: %w", name, err)
	}
	metrics.UploadBytes.Observe(float64(written))

	res := &Result{
		URL:         URLPrefix + name,
		Name:        name,
		Size:        written,
		ContentType: contentType,
	}

	if isThumbnailable(contentType, name) {
		if err := s.thumbnail(path, name); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("file", name).Msg("Thumbnail generation failed")
		} else {
			res.ThumbnailURL = URLPrefix + ThumbDir + "/" + name
		}
	}

	logging.Ctx(ctx).Info().
		Str("file", name).
		Int64("size", written).
		Str("content_type", contentType).
		Msg("Upload stored")
	return res, nil
}

func (s *Store) thumbnail(path, name string) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if img.Bounds().Dx() > s.thumbWidth {
		img = imaging.Resize(img, s.thumbWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, filepath.Join(s.dir, ThumbDir, name)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (s *Store) discard(f *os.File, path string) {
	_ = f.Close()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to remove rejected upload")
	}
}

func isThumbnailable(contentType, name string) bool {
	if !strings.HasPrefix(contentType, "image/") {
		return false
	}
	_, err := imaging.FormatFromFilename(name)
	return err == nil
}

// SanitizeName reduces an uploaded file name to a safe base name: path
// components are dropped, whitespace runs become "-", and anything outside
// letters, digits, '.', '-' and '_' is removed.
func SanitizeName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	var b strings.Builder
	lastDash := false
	for _, r := range base {
		switch {
		case unicode.IsSpace(r):
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '_':
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		default:
			continue
		}
		lastDash = r == '-'
	}

	name := strings.Trim(b.String(), ".-")
	if name == "" {
		name = "file"
	}
	if len(name) > maxNameLength {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxNameLength-len(ext)] + ext
	}
	return name
}
