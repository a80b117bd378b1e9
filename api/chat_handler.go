package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/chat"
)

type chatHandler struct {
	responder Responder
	logger    zerolog.Logger
	service   *chat.Service
}

func newChatHandler(service *chat.Service, alerter Alerter) chatHandler {
	logger := log.With().Str("handlerName", "chatHandler").Logger()

	return chatHandler{
		responder: NewResponder(logger, alerter),
		logger:    logger,
		service:   service,
	}
}

// postChat answers the next assistant message for a conversation
// @Summary Chat
// @Description Sends the conversation so far and returns the assistant reply
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body ChatRequest true "Conversation, oldest message first"
// @Success 200 {object} chat.Reply
// @Failure 422 {object} ErrorResponse "Unprocessable Entity - Invalid conversation"
// @Failure 429 {object} ErrorResponse "Too Many Requests"
// @Failure 502 {object} ErrorResponse "Bad Gateway - Provider failed"
// @Failure 503 {object} ErrorResponse "Service Unavailable - Chat not configured"
// @Router /chat [post]
func (h chatHandler) postChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		reply, err := h.service.Reply(r.Context(), req.Messages)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Debug().Str("chatId", reply.ID).Int("messages", len(req.Messages)).Msg("chat reply sent")
		h.responder.WriteJSON(w, reply)
	}
}
