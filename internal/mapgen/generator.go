// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package mapgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/skillswap/internal/config"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/metrics"
	"github.com/tomtom215/skillswap/internal/models"
)

const (
	defaultTimeout = 30 * time.Second
	defaultMaxAge  = 5 * time.Minute
	flightKey      = "map"
)

// ErrGenerationFailed wraps every failed generator run.
var ErrGenerationFailed = errors.New("map generation failed")

// ListingSource supplies the listings plotted on the map.
type ListingSource interface {
	ListListingsWithLocation(ctx context.Context) ([]*models.Listing, error)
}

// Marker is one listing as handed to the generator script.
type Marker struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	ImageURL  string   `json:"imageUrl"`
}

// Generator produces the listings map HTML by running an external script.
// Concurrent requests for a stale map share one run.
type Generator struct {
	python     string
	script     string
	outputPath string
	timeout    time.Duration
	maxAge     time.Duration

	source ListingSource
	runner Runner
	group  singleflight.Group
	now    func() time.Time
}

// New creates a Generator. A nil runner runs real subprocesses.
func New(cfg *config.MapConfig, source ListingSource, runner Runner) *Generator {
	g := &Generator{
		python:     cfg.Python,
		script:     cfg.ScriptPath,
		outputPath: cfg.OutputPath,
		timeout:    cfg.Timeout,
		maxAge:     cfg.MaxAge,
		source:     source,
		runner:     runner,
		now:        time.Now,
	}
	if g.python == "" {
		g.python = "python3"
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.maxAge <= 0 {
		g.maxAge = defaultMaxAge
	}
	if g.runner == nil {
		g.runner = ExecRunner{}
	}
	return g
}

// OutputPath returns the generated HTML file path.
func (g *Generator) OutputPath() string { return g.outputPath }

// Ensure makes sure a map file is available and returns its path.
//
// Only admins may force a regeneration. Anyone may trigger the first
// generation when no map exists yet; after that only admins refresh a map
// older than the configured max age. Non-admins are served whatever exists.
func (g *Generator) Ensure(ctx context.Context, isAdmin, force bool) (string, error) {
	if force && !isAdmin {
		return "", models.NewForbiddenError("only admins may regenerate the map")
	}

	modTime, exists := g.stat()
	allowed := isAdmin || (!force && !exists)
	stale := !exists || g.now().Sub(modTime) > g.maxAge

	if allowed && (force || stale) {
		if err := g.generate(ctx); err != nil {
			return "", err
		}
	}

	if _, ok := g.stat(); !ok {
		return "", models.NewNotFoundError("map")
	}
	return g.outputPath, nil
}

func (g *Generator) stat() (time.Time, bool) {
	fi, err := os.Stat(g.outputPath)
	if err != nil || fi.IsDir() {
		return time.Time{}, false
	}
	return fi.ModTime(), true
}

// generate joins an in-flight run or starts one. The run is detached from
// the caller's cancellation so a client disconnect does not kill a run
// other requests are waiting on.
func (g *Generator) generate(ctx context.Context) error {
	ch := g.group.DoChan(flightKey, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return nil, g.run(runCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Generator) run(ctx context.Context) error {
	start := time.Now()
	err := g.runOnce(ctx)
	duration := time.Since(start)

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	default:
		result = "error"
	}
	metrics.RecordMapGeneration(result, duration)

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Dur("duration", duration).Msg("Map generation failed")
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	logging.Ctx(ctx).Info().Dur("duration", duration).Str("output", g.outputPath).Msg("Map generated")
	return nil
}

func (g *Generator) runOnce(ctx context.Context) error {
	listings, err := g.source.ListListingsWithLocation(ctx)
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}

	dir := filepath.Dir(g.outputPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create map dir: %w", err)
	}

	input, err := writeMarkers(dir, listings)
	if err != nil {
		return err
	}
	defer removeQuietly(input)

	tmpOut := g.outputPath + ".tmp"
	defer removeQuietly(tmpOut)

	stderr, err := g.runner.Run(ctx, g.python, g.script, "--input", input, "--output", tmpOut)
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		logging.Ctx(ctx).Warn().Str("stderr", truncate(msg, 2048)).Msg("Map generator stderr")
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("run %s: %w", g.script, ctxErr)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", g.script, err)
	}

	if err := os.Rename(tmpOut, g.outputPath); err != nil {
		return fmt.Errorf("publish map: %w", err)
	}
	return nil
}

func writeMarkers(dir string, listings []*models.Listing) (string, error) {
	markers := make([]Marker, 0, len(listings))
	for _, l := range listings {
		markers = append(markers, Marker{
			ID:        l.ID,
			Title:     l.Title,
			Address:   l.Address,
			City:      l.City,
			Country:   l.Country,
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			ImageURL:  l.ImageURL,
		})
	}

	f, err := os.CreateTemp(dir, "listings-*.json")
	if err != nil {
		return "", fmt.Errorf("create listings file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(markers); err != nil {
		_ = f.Close()
		removeQuietly(f.Name())
		return "", fmt.Errorf("write listings file: %w", err)
	}
	if err := f.Close(); err != nil {
		removeQuietly(f.Name())
		return "", fmt.Errorf("close listings file: %w", err)
	}
	return f.Name(), nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Debug().Err(err).Str("path", path).Msg("Failed to remove temp file")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
