package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/repository"
)

// CatalogHandler serves the category and offer-type lookup tables.
type CatalogHandler struct {
	Catalog *repository.CatalogRepo
}

func NewCatalogHandler(catalog *repository.CatalogRepo) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

type categoryView struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type offerTypeView struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
}

// Categories lists all offer categories.
func (h *CatalogHandler) Categories(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]categoryView, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryView{ID: cat.ID, Name: cat.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// OfferTypes lists all offer types.
func (h *CatalogHandler) OfferTypes(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	types, err := h.Catalog.ListOfferTypes(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]offerTypeView, 0, len(types))
	for _, t := range types {
		out = append(out, offerTypeView{ID: t.ID, Type: t.Type})
	}
	return c.JSON(http.StatusOK, out)
}
