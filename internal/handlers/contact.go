package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// ContactHandler stores messages from the public contact form.
type ContactHandler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(db *gorm.DB, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{DB: db, Logger: logger}
}

// ContactRequest represents the contact form.
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// Send stores a contact message.
func (h *ContactHandler) Send(c *gin.Context) {
	var req ContactRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	msg := models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&msg).Error; err != nil {
		serverError(c, h.Logger, "failed to store contact message", err)
		return
	}
	utils.Success(c, "Message sent successfully!", nil)
}
