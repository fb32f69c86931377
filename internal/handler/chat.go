package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/notify"
	"github.com/dkravtsov/offerhub/internal/repository"
)

// maxMessageLen bounds chat message content, matching the column width.
const maxMessageLen = 255

// ChatHandler manages offer chats and their messages. Posting a message
// also pushes a notification to the other participant's channel.
type ChatHandler struct {
	Chats     *repository.ChatRepo
	Executors *repository.ExecutorRepo
	Bus       *notify.Bus
}

func NewChatHandler(chats *repository.ChatRepo, executors *repository.ExecutorRepo, bus *notify.Bus) *ChatHandler {
	return &ChatHandler{Chats: chats, Executors: executors, Bus: bus}
}

type chatReq struct {
	Name       string `json:"chat_name"`
	OfferID    uint64 `json:"offer_id"`
	ExecutorID uint64 `json:"executor_id"`
}

type messageView struct {
	ID          uint64    `json:"id"`
	ChatID      uint64    `json:"chat_id"`
	OwnerID     uint64    `json:"owner_id"`
	RecipientID uint64    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

func newMessageView(m model.Message) messageView {
	return messageView{
		ID:          m.ID,
		ChatID:      m.ChatID,
		OwnerID:     m.OwnerID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

// Create opens a chat between the caller (offer owner) and an executor
// of that offer. The executor must belong to the named offer.
func (h *ChatHandler) Create(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req chatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.OfferID == 0 || req.ExecutorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "chat_name, offer_id and executor_id required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	e, err := h.Executors.GetDetail(ctx, req.ExecutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "executor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if e.OfferID != req.OfferID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "executor not found"})
	}
	if e.OfferOwnerID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your offer"})
	}

	id, err := h.Chats.Create(ctx, req.Name, req.OfferID, req.ExecutorID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "chat already exists for this executor"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create chat failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Delete removes a chat and its messages. Offer owner only.
func (h *ChatHandler) Delete(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chat id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	chat, err := h.Chats.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "chat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if chat.OwnerUserID != user.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your chat"})
	}

	if err := h.Chats.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete chat failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"chat": id, "status": "deleted"})
}

type postMessageReq struct {
	Content string `json:"content"`
}

// PostMessage appends a message to a chat the caller participates in.
// The recipient is always the other participant, and a notification is
// published to their channel best-effort.
func (h *ChatHandler) PostMessage(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	chatID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chat id"})
	}

	var req postMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	if len(req.Content) > maxMessageLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content too long"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	chat, err := h.Chats.GetDetail(ctx, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "chat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	recipientID, ok := chat.OtherParty(user.ID)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a chat participant"})
	}

	msg, err := h.Chats.CreateMessage(ctx, model.Message{
		ChatID:      chatID,
		OwnerID:     user.ID,
		RecipientID: recipientID,
		Content:     req.Content,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create message failed"})
	}

	// Delivery is best-effort; the message is already persisted.
	_ = h.Bus.Publish(ctx, recipientID, notify.NewMessage(recipientID, chatID))

	return c.JSON(http.StatusCreated, newMessageView(msg))
}

// ListMessages returns a chat's history to its participants.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	chatID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chat id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	chat, err := h.Chats.GetDetail(ctx, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "chat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, ok := chat.OtherParty(user.ID); !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a chat participant"})
	}

	msgs, err := h.Chats.ListMessages(ctx, chatID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, newMessageView(m))
	}
	return c.JSON(http.StatusOK, out)
}
