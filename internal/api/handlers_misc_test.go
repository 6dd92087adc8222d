// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/skillswap/internal/upload"
)

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "ignored"); err != nil {
		t.Fatal(err)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func (c *client) upload(t *testing.T, filename string, content []byte) (int, []byte) {
	t.Helper()
	body, contentType := multipartBody(t, "file", filename, content)
	req, err := http.NewRequest(http.MethodPost, c.env.server.URL+"/upload", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(req)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{G: 180, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUpload(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	c, _ := env.register("uploader")

	status, body := c.upload(t, "My Photo.png", testPNG(t, 600, 200))
	if status != http.StatusCreated {
		t.Fatalf("upload: status %d body %s", status, body)
	}
	res := decode[upload.Result](t, body)
	if !strings.HasPrefix(res.URL, upload.URLPrefix) || !strings.HasSuffix(res.URL, "-My-Photo.png") {
		t.Errorf("url = %q", res.URL)
	}
	if res.ThumbnailURL == "" {
		t.Error("no thumbnail for image upload")
	}

	status, served := env.anonymous().do(http.MethodGet, res.URL, nil)
	if status != http.StatusOK || !bytes.HasPrefix(served, []byte("\x89PNG")) {
		t.Errorf("serve upload: status %d", status)
	}
	status, _ = env.anonymous().do(http.MethodGet, res.ThumbnailURL, nil)
	if status != http.StatusOK {
		t.Errorf("serve thumbnail: status %d", status)
	}
	status, _ = env.anonymous().do(http.MethodGet, upload.URLPrefix, nil)
	if status != http.StatusNotFound {
		t.Errorf("directory listing: status %d, want 404", status)
	}

	status, body = c.upload(t, "", nil)
	expectError(t, status, body, http.StatusBadRequest, ErrCodeValidationFailed)
	status, body = c.upload(t, "empty.txt", nil)
	expectError(t, status, body, http.StatusBadRequest, ErrCodeValidationFailed)

	status, body = env.anonymous().upload(t, "a.txt", []byte("hello"))
	expectError(t, status, body, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestMap(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user, _ := env.register("mapper")
	admin := env.admin()

	// Anyone may trigger the first generation.
	status, body := env.anonymous().do(http.MethodGet, "/map", nil)
	if status != http.StatusOK || !bytes.Contains(body, []byte("map")) {
		t.Fatalf("first map: status %d body %s", status, body)
	}
	if got := env.mapRunner.calls.Load(); got != 1 {
		t.Fatalf("runner calls = %d, want 1", got)
	}

	// A fresh map is served as is.
	status, _ = user.do(http.MethodGet, "/map", nil)
	if status != http.StatusOK || env.mapRunner.calls.Load() != 1 {
		t.Fatalf("cached map: status %d calls %d", status, env.mapRunner.calls.Load())
	}

	status, body = user.do(http.MethodGet, "/map?regenerate=1", nil)
	expectError(t, status, body, http.StatusForbidden, ErrCodeForbidden)

	status, _ = admin.do(http.MethodGet, "/map?regenerate=1", nil)
	if status != http.StatusOK {
		t.Fatalf("admin regenerate: status %d", status)
	}
	if got := env.mapRunner.calls.Load(); got != 2 {
		t.Errorf("runner calls = %d, want 2", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	anon := env.anonymous()

	for _, path := range []string{"/health/live", "/health/ready"} {
		status, body := anon.do(http.MethodGet, path, nil)
		if status != http.StatusOK || !bytes.Contains(body, []byte(`"status":"ok"`)) {
			t.Errorf("%s: status %d body %s", path, status, body)
		}
	}

	anon.do(http.MethodGet, "/listings", nil)
	status, body := anon.do(http.MethodGet, "/metrics", nil)
	if status != http.StatusOK || !bytes.Contains(body, []byte("api_requests_total")) {
		t.Errorf("metrics: status %d", status)
	}

	status, body = anon.do(http.MethodGet, "/nope", nil)
	expectError(t, status, body, http.StatusNotFound, ErrCodeNotFound)
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	c := env.anonymous()

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/auth/me", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Request-ID", "trace-123")
	status, body := c.send(req)
	resp := expectError(t, status, body, http.StatusUnauthorized, ErrCodeUnauthorized)
	if resp.RequestID != "trace-123" {
		t.Errorf("request_id = %q, want trace-123", resp.RequestID)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/listings")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
		"Content-Type":           "application/json",
	}
	for k, v := range want {
		if got := resp.Header.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}
