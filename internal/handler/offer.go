package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/repository"
	"github.com/dkravtsov/offerhub/internal/storage"
)

// OfferHandler serves offer CRUD plus the public browse views.
type OfferHandler struct {
	Offers    *repository.OfferRepo
	Executors *repository.ExecutorRepo
	Files     *repository.FileRepo
	Storage   *storage.Client
}

func NewOfferHandler(offers *repository.OfferRepo, executors *repository.ExecutorRepo, files *repository.FileRepo, st *storage.Client) *OfferHandler {
	return &OfferHandler{Offers: offers, Executors: executors, Files: files, Storage: st}
}

type offerReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	S3Filename  string `json:"s3_filename"`
	CategoryID  uint64 `json:"category_id"`
	TypeID      uint64 `json:"type_id"`
	IsAnonymous bool   `json:"is_anonymous"`
	IsClosed    bool   `json:"is_closed"`
}

// offerView is the public shape of an offer. Anonymous offers report a
// zero owner id; the attachment comes back as a presigned URL, never as
// the raw object key.
type offerView struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"file_url,omitempty"`
	CategoryID  uint64    `json:"category_id"`
	TypeID      uint64    `json:"type_id"`
	IsAnonymous bool      `json:"is_anonymous"`
	IsClosed    bool      `json:"is_closed"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *OfferHandler) view(c echo.Context, o model.Offer, viewerID uint64) offerView {
	v := offerView{
		ID:          o.ID,
		UserID:      o.UserID,
		Title:       o.Title,
		Description: o.Description,
		CategoryID:  o.CategoryID,
		TypeID:      o.TypeID,
		IsAnonymous: o.IsAnonymous,
		IsClosed:    o.IsClosed,
		CreatedAt:   o.CreatedAt,
	}
	if o.IsAnonymous && o.UserID != viewerID {
		v.UserID = 0
	}
	if o.S3Filename != "" {
		url, err := h.Storage.PresignGet(c.Request().Context(), o.S3Filename)
		if err != nil {
			log.Printf("storage: presign %q failed: %v", o.S3Filename, err)
		}
		v.FileURL = url
	}
	return v
}

// Create posts a new offer owned by the caller.
func (h *OfferHandler) Create(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req offerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.CategoryID == 0 || req.TypeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, category_id and type_id required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Offers.Create(ctx, model.Offer{
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		S3Filename:  req.S3Filename,
		CategoryID:  req.CategoryID,
		TypeID:      req.TypeID,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create offer failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List is the public catalog of open offers, optionally filtered by
// category and type. Runs behind soft auth so anonymous owners still
// see their own name on their offers.
func (h *OfferHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	offers, err := h.Offers.List(ctx, queryID(c, "category_id"), queryID(c, "type_id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var viewerID uint64
	if user, ok := middleware.CurrentUser(c); ok {
		viewerID = user.ID
	}
	out := make([]offerView, 0, len(offers))
	for _, o := range offers {
		out = append(out, h.view(c, o, viewerID))
	}
	return c.JSON(http.StatusOK, out)
}

// ListMine returns the caller's own offers.
func (h *OfferHandler) ListMine(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	offers, err := h.Offers.ListByUser(ctx, user.ID, queryID(c, "type_id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]offerView, 0, len(offers))
	for _, o := range offers {
		out = append(out, h.view(c, o, user.ID))
	}
	return c.JSON(http.StatusOK, out)
}

// PublicView shows one offer to anyone.
func (h *OfferHandler) PublicView(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offer id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var viewerID uint64
	if user, ok := middleware.CurrentUser(c); ok {
		viewerID = user.ID
	}
	return c.JSON(http.StatusOK, h.view(c, o, viewerID))
}

// PrivateView is the owner's management view with executors and files.
// Anyone else gets a 404 so the endpoint does not leak which offer ids
// exist behind it.
func (h *OfferHandler) PrivateView(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offer id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.UserID != user.ID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	}

	executors, err := h.Executors.ListByOffer(ctx, o.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	files, err := h.Files.ListByOffer(ctx, o.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"offer":     h.view(c, o, user.ID),
		"executors": executorViews(executors),
		"files":     fileViews(files),
	})
}

// Update replaces the mutable fields of the caller's offer.
func (h *OfferHandler) Update(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offer id"})
	}

	var req offerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.CategoryID == 0 || req.TypeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, category_id and type_id required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.UserID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your offer"})
	}

	o.Title = req.Title
	o.Description = req.Description
	o.S3Filename = req.S3Filename
	o.CategoryID = req.CategoryID
	o.TypeID = req.TypeID
	o.IsAnonymous = req.IsAnonymous
	o.IsClosed = req.IsClosed
	if err := h.Offers.Update(ctx, o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update offer failed"})
	}
	return c.JSON(http.StatusOK, h.view(c, o, user.ID))
}

// Delete removes the caller's offer; executors, files and chats cascade.
func (h *OfferHandler) Delete(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offer id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.UserID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your offer"})
	}

	if err := h.Offers.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete offer failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"offer": id, "status": "deleted"})
}
