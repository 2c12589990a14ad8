package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	messagingdomain "github.com/throwclay/throwclay/internal/messaging/domain"
)

type EditMessageRequest struct {
	Body string `json:"body"`
}

func (s *Server) ListConversations(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	conversations, err := s.messagingSvc.ListConversations(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (s *Server) CreateConversation(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req messagingdomain.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	conversation, err := s.messagingSvc.CreateConversation(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

func (s *Server) ListMessages(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid", "limit must be an integer"))
		return
	}

	messages, err := s.messagingSvc.ListMessages(c.Request.Context(), userID, c.Param("id"), c.Query("before"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *Server) SendMessage(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req messagingdomain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	message, err := s.messagingSvc.SendMessage(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (s *Server) EditMessage(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		AbortWithError(c, newValidationError("body", "required", "body is required"))
		return
	}

	message, err := s.messagingSvc.EditMessage(c.Request.Context(), userID, c.Param("id"), c.Param("messageId"), req.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}

func (s *Server) DeleteMessage(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.messagingSvc.DeleteMessage(c.Request.Context(), userID, c.Param("id"), c.Param("messageId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) MarkConversationRead(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	marked, err := s.messagingSvc.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}
