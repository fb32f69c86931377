package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/repository"
)

// FileHandler manages attachment records on offers. Every mutation is
// guarded by offer ownership.
type FileHandler struct {
	Files  *repository.FileRepo
	Offers *repository.OfferRepo
}

func NewFileHandler(files *repository.FileRepo, offers *repository.OfferRepo) *FileHandler {
	return &FileHandler{Files: files, Offers: offers}
}

type fileView struct {
	ID      uint64 `json:"id"`
	OfferID uint64 `json:"offer_id"`
	Name    string `json:"name"`
	Link    string `json:"link"`
}

func fileViews(in []model.FileOffer) []fileView {
	out := make([]fileView, 0, len(in))
	for _, f := range in {
		out = append(out, fileView{ID: f.ID, OfferID: f.OfferID, Name: f.Name, Link: f.Link})
	}
	return out
}

type fileReq struct {
	OfferID uint64 `json:"offer_id"`
	Name    string `json:"name"`
	Link    string `json:"link"`
}

// Create attaches a file record to the caller's offer.
func (h *FileHandler) Create(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req fileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.OfferID == 0 || req.Name == "" || req.Link == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offer_id, name and link required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, req.OfferID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.UserID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your offer"})
	}

	id, err := h.Files.Create(ctx, model.FileOffer{OfferID: req.OfferID, Name: req.Name, Link: req.Link})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create file failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Update renames or relinks a file on the caller's offer.
func (h *FileHandler) Update(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	var req fileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Link == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and link required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	f, ownerID, err := h.Files.GetWithOwner(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ownerID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your offer"})
	}

	f.Name = req.Name
	f.Link = req.Link
	if err := h.Files.Update(ctx, f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update file failed"})
	}
	return c.JSON(http.StatusOK, fileView{ID: f.ID, OfferID: f.OfferID, Name: f.Name, Link: f.Link})
}

// Delete removes a file record from the caller's offer.
func (h *FileHandler) Delete(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	_, ownerID, err := h.Files.GetWithOwner(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ownerID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your offer"})
	}

	if err := h.Files.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete file failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"file": id, "status": "deleted"})
}
