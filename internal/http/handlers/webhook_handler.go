package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ledger-bot/internal/http/middleware"
	"github.com/tbourn/go-ledger-bot/internal/messenger"
	"github.com/tbourn/go-ledger-bot/internal/services"
)

// EventReceived is the body the platform expects on a successful delivery.
const EventReceived = "EVENT_RECEIVED"

// VerifyWebhook godoc
// @ID          verifyWebhook
// @Summary     Webhook subscription handshake
// @Description Echoes hub.challenge when hub.mode is "subscribe" and hub.verify_token matches.
// @Tags        Webhook
// @Produce     plain
//
// @Param       hub.mode          query  string  true  "Must be subscribe"  example(subscribe)
// @Param       hub.verify_token  query  string  true  "Configured verify token"
// @Param       hub.challenge     query  string  true  "Value to echo"      example(1158201444)
//
// @Success     200  {string}  string                  "The challenge"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing parameters"
// @Failure     403  {object}  handlers.ErrorResponse  "Token mismatch"
// @Router      /webhook [get]
func (h *Handlers) VerifyWebhook(c *gin.Context) {
	challenge, err := messenger.VerifySubscription(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	switch {
	case errors.Is(err, messenger.ErrMissingParams):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "hub.mode and hub.verify_token are required")
		return
	case err != nil:
		middleware.LoggerFrom(c).Warn().Msg("webhook verification failed")
		fail(c, http.StatusForbidden, ErrCodeVerifyFailed, "verify token mismatch")
		return
	}
	c.String(http.StatusOK, challenge)
}

// ReceiveWebhook godoc
// @ID          receiveWebhook
// @Summary     Receive webhook events
// @Description Accepts a page envelope and processes its text messages in the background.
// @Tags        Webhook
// @Accept      json
// @Produce     plain
//
// @Param       X-Hub-Signature-256  header  string              false  "sha256=<hex HMAC of body> (required when APP_SECRET is set)"
// @Param       body                 body    messenger.Envelope  true   "Webhook envelope"
//
// @Success     200  {string}  string                  "EVENT_RECEIVED"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed JSON"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad signature"
// @Failure     404  {object}  handlers.ErrorResponse  "Not a page subscription"
// @Failure     503  {object}  handlers.ErrorResponse  "Shutting down"
// @Router      /webhook [post]
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	var env messenger.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		failErr(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}
	if env.Object != messenger.ObjectPage {
		fail(c, http.StatusNotFound, ErrCodeUnsupportedObject, "unsupported object")
		return
	}

	n, err := h.hook.Dispatch(c.Request.Context(), env)
	if errors.Is(err, services.ErrShuttingDown) {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "shutting down")
		return
	}
	if err != nil {
		failErr(c, http.StatusInternalServerError, ErrCodeInternal, err)
		return
	}
	middleware.LoggerFrom(c).Debug().Int("messages", n).Msg("webhook dispatched")
	c.String(http.StatusOK, EventReceived)
}
