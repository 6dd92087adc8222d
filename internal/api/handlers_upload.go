// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/models"
	"github.com/tomtom215/skillswap/internal/upload"
)

// multipartOverhead is the allowance for multipart framing on top of the
// file size limit.
const multipartOverhead = 1 << 20

// UploadFile handles POST /upload. The file is read from the multipart
// field "file" and streamed to the store without buffering the whole form.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxSize()+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeServiceError(w, r, models.NewValidationError("multipart/form-data body required"))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !isBodyTooLarge(err) {
				err = models.NewValidationError("malformed multipart body")
			}
			writeUploadError(w, r, err)
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		res, err := h.uploads.Save(r.Context(), part, part.FileName())
		_ = part.Close()
		if err != nil {
			writeUploadError(w, r, err)
			return
		}
		logging.Ctx(r.Context()).Info().
			Int64("user_id", subject.UserID).
			Str("file", res.Name).
			Int64("size", res.Size).
			Msg("File uploaded")
		respondJSON(w, http.StatusCreated, res)
		return
	}

	writeServiceError(w, r, models.NewValidationError("file is required"))
}

func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if isBodyTooLarge(err) {
		respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "file too large")
		return
	}
	writeServiceError(w, r, err)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// UploadsFileServer serves stored uploads under /uploads/. Directory
// listings are not served.
func (h *Handler) UploadsFileServer() http.Handler {
	fs := http.FileServer(noListingFS{http.Dir(h.uploads.Dir())})
	return http.StripPrefix(strings.TrimSuffix(upload.URLPrefix, "/"), fs)
}

// noListingFS hides directories from http.FileServer.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
