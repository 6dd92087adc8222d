// SkillSwap - Booking and Listing Marketplace API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillswap

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/skillswap/internal/database"
	"github.com/tomtom215/skillswap/internal/logging"
	"github.com/tomtom215/skillswap/internal/models"
)

const msgSlugTaken = "category slug already exists"

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.db.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	c := &models.Category{Name: req.Name, Slug: req.Slug}
	c.Normalize()
	if err := h.db.CreateCategory(r.Context(), c); err != nil {
		writeServiceError(w, r, categoryError(err))
		return
	}
	logging.Ctx(r.Context()).Info().Int64("category_id", c.ID).Str("slug", c.Slug).Msg("Category created")
	respondJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PATCH /categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req CategoryPatchRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	c, err := h.db.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, categoryError(err))
		return
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Slug != nil {
		c.Slug = *req.Slug
	}
	c.Normalize()

	if err := h.db.UpdateCategory(r.Context(), c); err != nil {
		writeServiceError(w, r, categoryError(err))
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /categories/{id} and returns the removed
// category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.db.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, categoryError(err))
		return
	}

	deleted, err := h.db.DeleteCategory(r.Context(), id)
	if errors.Is(err, database.ErrUniqueViolation) {
		writeServiceError(w, r, models.NewConflictError("category is still used by listings", err))
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeServiceError(w, r, models.NewNotFoundError("category"))
		return
	}
	logging.Ctx(r.Context()).Info().Int64("category_id", id).Msg("Category deleted")
	respondJSON(w, http.StatusOK, c)
}

// categoryError names the store sentinels in category terms.
func categoryError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return models.NewNotFoundError("category")
	case errors.Is(err, database.ErrUniqueViolation):
		return models.NewConflictError(msgSlugTaken, err)
	}
	return err
}
