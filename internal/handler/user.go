package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/auth"
	"github.com/dkravtsov/offerhub/internal/config"
	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/queue"
	"github.com/dkravtsov/offerhub/internal/repository"
	queuepublisher "github.com/dkravtsov/offerhub/internal/service"
	"github.com/dkravtsov/offerhub/internal/session"
)

// AccountStore is the slice of UserRepo the account handlers need.
type AccountStore interface {
	Create(ctx context.Context, email, passwordHash string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	MarkVerified(ctx context.Context, id uint64) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	Delete(ctx context.Context, id uint64) error
}

// ProfileStore is the slice of PersonalDataRepo the account handlers
// need.
type ProfileStore interface {
	Create(ctx context.Context, userID uint64) error
	Get(ctx context.Context, userID uint64) (model.PersonalData, error)
	Update(ctx context.Context, p model.PersonalData) error
}

// UserHandler covers account lifecycle: registration, profile data,
// email verification and password rotation.
type UserHandler struct {
	Cfg      config.Config
	Users    AccountStore
	Personal ProfileStore
	Verify   *repository.VerifyRepo
	Sessions *session.Store
}

func NewUserHandler(cfg config.Config, users AccountStore, personal ProfileStore, verify *repository.VerifyRepo, sessions *session.Store) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Personal: personal, Verify: verify, Sessions: sessions}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account with an empty profile row. A taken email
// comes back as a structured field error so forms can highlight the
// offending input.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"field_name": "email", "error": "invalid email address",
		})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"field_name": "password", "error": "password must be at least 8 characters",
		})
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"field_name": "email", "error": "email is already registered",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	if err := h.Personal.Create(ctx, id); err != nil {
		// Don't leave a half-registered account behind: without its
		// profile row the user could never verify.
		_ = h.Users.Delete(ctx, id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create profile failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": req.Email})
}

// Delete removes the caller's account. Related rows cascade in the
// database; the refresh session is revoked best-effort since the user
// record it points at is gone either way.
func (h *UserHandler) Delete(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, user.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	if cookie, err := c.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		_ = h.Sessions.Revoke(ctx, cookie.Value)
	}
	clearSessionCookie(c)

	return c.JSON(http.StatusOK, echo.Map{"user": user.ID, "status": "deleted"})
}

// GetPersonalData returns the caller's profile.
func (h *UserHandler) GetPersonalData(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Personal.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// UpdatePersonalData replaces the caller's profile fields.
func (h *UserHandler) UpdatePersonalData(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var p model.PersonalData
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p.UserID = user.ID

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Personal.Update(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// RequestEmailVerify issues a one-time verification token and queues
// the confirmation email. Verification is gated on a complete profile
// so verified accounts always carry contact details.
func (h *UserHandler) RequestEmailVerify(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if user.IsVerified {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is already verified"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Personal.Get(ctx, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.Complete() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fill in personal data before verifying"})
	}

	info, err := h.Verify.CreateVerifyInfo(ctx, user.ID, uuid.NewString())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification already requested"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create verification failed"})
	}

	// Mail delivery must not block or fail the request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queuepublisher.PublishEmailTask(ctx, queue.EmailTask{
			Template:  queue.TemplateVerifyEmail,
			Recipient: user.Email,
			Token:     info.Token,
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{"status": "verification email queued"})
}

type confirmVerifyReq struct {
	Token string `json:"token"`
}

// ConfirmEmailVerify consumes a verification token and marks both the
// record and the user verified.
func (h *UserHandler) ConfirmEmailVerify(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req confirmVerifyReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	info, err := h.Verify.GetVerifyInfo(ctx, user.ID, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "verification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if info.VerifiedAt != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is already verified"})
	}

	now := time.Now().UTC()
	if err := h.Verify.MarkVerified(ctx, info.ID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update verification failed"})
	}
	if err := h.Users.MarkVerified(ctx, user.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user.ID, "status": "verified"})
}

type passwordUpdateReq struct {
	PreviousPassword string `json:"previous_password"`
	NewPassword      string `json:"new_password"`
}

// UpdatePassword rotates the caller's password. The presented refresh
// session is revoked before anything else so a hijacked session cannot
// survive the change, then the old password is re-verified and the
// rotation recorded in the audit trail.
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	sess, ok := sessionFromCookie(c, h.Sessions)
	if !ok {
		return nil
	}

	var req passwordUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"field_name": "new_password", "error": "password must be at least 8 characters",
		})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke session failed"})
	}
	clearSessionCookie(c)

	if !auth.VerifyPassword(user.PasswordHash, req.PreviousPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "previous password does not match"})
	}

	hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Verify.RecordPasswordUpdate(ctx, user.ID, user.PasswordHash, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record update failed"})
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}

	// Notify the account owner out of band.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queuepublisher.PublishEmailTask(ctx, queue.EmailTask{
			Template:  queue.TemplatePasswordUpdate,
			Recipient: user.Email,
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{"user": user.ID, "status": "password updated"})
}
