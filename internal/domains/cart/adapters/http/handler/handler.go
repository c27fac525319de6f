package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/http/mapper"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/notify"
	cartapp "github.com/Th0mes/ignite-cart/internal/domains/cart/application"
	cartdomain "github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	cartports "github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
	apierrors "github.com/Th0mes/ignite-cart/internal/shared/errors"
)

const (
	SessionHeader     = "X-Cart-Session"
	sessionContextKey = "cart.session"
	maxSessionLength  = 128
)

// NotificationFeeds resolves the pending toasts of a session.
type NotificationFeeds interface {
	For(sessionID string) *notify.Feed
}

// CartAPI wires the HTTP transport to the per-session cart services.
type CartAPI struct {
	sessions cartports.Sessions
	feeds    NotificationFeeds
	problems *apierrors.Responder
	logger   *slog.Logger
}

func NewCartAPI(sessions cartports.Sessions, feeds NotificationFeeds, logger *slog.Logger) *CartAPI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CartAPI{
		sessions: sessions,
		feeds:    feeds,
		problems: apierrors.NewResponder(mapCartError),
		logger:   logger,
	}
}

// Session resolves the caller's session from SessionHeader, minting one when
// absent, and echoes it back on the response.
func (api *CartAPI) Session(c *gin.Context) {
	session := strings.TrimSpace(c.GetHeader(SessionHeader))
	if session == "" {
		session = uuid.NewString()
	}
	if len(session) > maxSessionLength {
		api.problems.BadRequest(c, fmt.Sprintf("%s must be at most %d characters", SessionHeader, maxSessionLength))
		return
	}
	c.Set(sessionContextKey, session)
	c.Header(SessionHeader, session)
	c.Next()
}

// Get /v1/cart
func (api *CartAPI) GetCart(c *gin.Context) {
	svc, release, ok := api.open(c)
	if !ok {
		return
	}
	defer release()
	api.respondCart(c, svc)
}

// Post /v1/cart/items/:productId
func (api *CartAPI) AddItem(c *gin.Context) {
	id, ok := api.parseProductID(c)
	if !ok {
		return
	}
	svc, release, ok := api.open(c)
	if !ok {
		return
	}
	defer release()
	svc.AddItem(c.Request.Context(), id)
	api.respondCart(c, svc)
}

// Delete /v1/cart/items/:productId
func (api *CartAPI) RemoveItem(c *gin.Context) {
	id, ok := api.parseProductID(c)
	if !ok {
		return
	}
	svc, release, ok := api.open(c)
	if !ok {
		return
	}
	defer release()
	svc.RemoveItem(c.Request.Context(), id)
	api.respondCart(c, svc)
}

// Put /v1/cart/items/:productId
func (api *CartAPI) SetQuantity(c *gin.Context) {
	id, ok := api.parseProductID(c)
	if !ok {
		return
	}
	var payload mapper.SetQuantityRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.problems.ValidationFailed(c, map[string]string{"amount": err.Error()})
		return
	}
	svc, release, ok := api.open(c)
	if !ok {
		return
	}
	defer release()
	svc.SetQuantity(c.Request.Context(), id, *payload.Amount)
	api.respondCart(c, svc)
}

// Get /v1/cart/notifications
func (api *CartAPI) Notifications(c *gin.Context) {
	_, release, ok := api.open(c)
	if !ok {
		return
	}
	defer release()
	c.JSON(http.StatusOK, gin.H{
		"notifications": mapper.FromNotifications(api.feeds.For(sessionOf(c)).Drain()),
	})
}

// open pins the caller's session; feeds are only touched while it is pinned
// so an evicted session never leaves its feed behind.
func (api *CartAPI) open(c *gin.Context) (cartports.Service, func(), bool) {
	svc, release, err := api.sessions.Open(c.Request.Context(), sessionOf(c))
	if err != nil {
		api.logger.LogAttrs(c.Request.Context(), slog.LevelError, "failed to open cart session",
			slog.String("error", err.Error()))
		api.problems.RespondError(c, err)
		return nil, nil, false
	}
	return svc, release, true
}

func (api *CartAPI) respondCart(c *gin.Context, svc cartports.Service) {
	c.JSON(http.StatusOK, mapper.CartResponse{
		Cart:          mapper.FromDomainCart(svc.Cart(c.Request.Context())),
		Notifications: mapper.FromNotifications(api.feeds.For(sessionOf(c)).Drain()),
	})
}

func (api *CartAPI) parseProductID(c *gin.Context) (cartdomain.ProductID, bool) {
	raw := c.Param("productId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.problems.ValidationFailed(c, map[string]string{"productId": fmt.Sprintf("%q is not a positive integer", raw)})
		return 0, false
	}
	return cartdomain.ProductID(id), true
}

func sessionOf(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}

func mapCartError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, cartapp.ErrEmptySession) {
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
