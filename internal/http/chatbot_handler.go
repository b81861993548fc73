package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"complaint-chat/internal/chatbot"
	"complaint-chat/internal/domain"
	"complaint-chat/internal/service"
)

// ChatbotHandler expone el backend del widget de ayuda.
type ChatbotHandler struct {
	logger  *zap.Logger
	replies *service.ReplyService
	ratings *service.RatingService
}

func NewChatbotHandler(logger *zap.Logger, replies *service.ReplyService, ratings *service.RatingService) *ChatbotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatbotHandler{logger: logger, replies: replies, ratings: ratings}
}

// Health maneja GET /healthz.
func (h *ChatbotHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PostMessage maneja POST /chatbot/message.
func (h *ChatbotHandler) PostMessage(c *gin.Context) {
	var req chatbot.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chatbot message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sc := req.Context.SessionContext(req.SessionID)
	applyIdentity(&sc, callerIdentity(c))

	reply, err := h.replies.Reply(c.Request.Context(), service.ReplyRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		Context:   sc,
		History:   req.Context.ConversationHistory,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		h.logger.Error("chatbot reply failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build reply"})
		return
	}

	c.JSON(http.StatusOK, chatbot.NewMessageResponse(reply))
}

// RateMessage maneja POST /chatbot/rate.
func (h *ChatbotHandler) RateMessage(c *gin.Context) {
	var req chatbot.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chatbot rate request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	_, err := h.ratings.Rate(c.Request.Context(), req.MessageID, req.SessionID, domain.Rating(req.Rating), req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingMessageID), errors.Is(err, service.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("store rating failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store rating"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// FAQCategories maneja GET /chatbot/faq/categories.
func (h *ChatbotHandler) FAQCategories(c *gin.Context) {
	categories, err := h.replies.Categories(c.Request.Context())
	if err != nil {
		h.logger.Error("list faq categories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// FAQsByCategory maneja GET /chatbot/faq/:categoryId.
func (h *ChatbotHandler) FAQsByCategory(c *gin.Context) {
	faqs, err := h.replies.FAQsByCategory(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		if errors.Is(err, service.ErrFAQNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		h.logger.Error("list faqs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list faqs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}

// SearchFAQ maneja GET /chatbot/faq/search?q=.
func (h *ChatbotHandler) SearchFAQ(c *gin.Context) {
	faqs, err := h.replies.SearchFAQ(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("search faqs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search faqs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}

// applyIdentity hace que el token mande sobre lo que declara el cliente.
func applyIdentity(sc *domain.SessionContext, identity *domain.Identity) {
	if identity == nil {
		sc.Role = domain.RoleGuest
		sc.Department = ""
		sc.Name = ""
		sc.IsAuthenticated = false
		return
	}
	sc.Role = identity.Role
	sc.Department = identity.Department
	sc.Name = identity.Name
	sc.IsAuthenticated = true
}
