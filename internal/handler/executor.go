package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/notify"
	"github.com/dkravtsov/offerhub/internal/repository"
)

// ExecutorHandler covers applying to offers, owner approval and
// withdrawal.
type ExecutorHandler struct {
	Executors *repository.ExecutorRepo
	Offers    *repository.OfferRepo
	Bus       *notify.Bus
}

func NewExecutorHandler(executors *repository.ExecutorRepo, offers *repository.OfferRepo, bus *notify.Bus) *ExecutorHandler {
	return &ExecutorHandler{Executors: executors, Offers: offers, Bus: bus}
}

type executorView struct {
	ID         uint64 `json:"id"`
	UserID     uint64 `json:"user_id"`
	OfferID    uint64 `json:"offer_id"`
	IsApproved bool   `json:"is_approved"`
}

func executorViews(in []model.Executor) []executorView {
	out := make([]executorView, 0, len(in))
	for _, e := range in {
		out = append(out, executorView{ID: e.ID, UserID: e.UserID, OfferID: e.OfferID, IsApproved: e.IsApproved})
	}
	return out
}

// Become applies the caller as executor of an offer. Only verified
// users may apply, owners cannot apply to their own offers, and a
// second application to the same offer is rejected.
func (h *ExecutorHandler) Become(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !user.IsVerified {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user must be verified"})
	}
	offerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offer id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.UserID == user.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot apply to your own offer"})
	}
	if o.IsClosed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offer is closed"})
	}

	id, err := h.Executors.Create(ctx, user.ID, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already applied to this offer"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create executor failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Approve marks an executor as accepted. Only the offer owner may do
// this.
func (h *ExecutorHandler) Approve(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid executor id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	e, err := h.Executors.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "executor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if e.OfferOwnerID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your offer"})
	}

	if err := h.Executors.Approve(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve executor failed"})
	}

	// Tell the executor; delivery is best-effort.
	_ = h.Bus.Publish(ctx, e.UserID,
		notify.NewServiceNotify(e.UserID, e.OfferID, "your application was approved"))

	return c.JSON(http.StatusOK, echo.Map{"executor": id, "status": "approved"})
}

// Remove withdraws an application. Either the executor themselves or
// the offer owner may remove it; chats hanging off the executor cascade.
func (h *ExecutorHandler) Remove(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid executor id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	e, err := h.Executors.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "executor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if e.UserID != user.ID && e.OfferOwnerID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your application"})
	}

	if err := h.Executors.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete executor failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"executor": id, "status": "removed"})
}
