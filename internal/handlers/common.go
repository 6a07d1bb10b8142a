package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/middleware"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// LoginRequest represents the request body for every login route.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// bindLogin reads the credentials and answers 400 itself when either is missing.
func bindLogin(c *gin.Context) (LoginRequest, bool) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.BadRequest(c, "Please provide both email and password")
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	return req, true
}

// LoginResponse wraps the account summary together with its session token.
type LoginResponse struct {
	Token    string      `json:"token"`
	Doctor   interface{} `json:"doctor,omitempty"`
	Hospital interface{} `json:"hospital,omitempty"`
	Patient  interface{} `json:"patient,omitempty"`
}

func issueToken(cfg *config.Config, id string, role models.Role) (string, error) {
	return utils.GenerateToken(utils.Principal{ID: id, Role: role}, cfg.JWTSecret, cfg.TokenTTL())
}

// emailTaken reports whether a row of model already uses email.
func emailTaken(db *gorm.DB, model interface{}, email string) (bool, error) {
	err := db.Select("id").Where("email = ?", email).First(model).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// actingAs reports whether the caller may act on behalf of account id. Anonymous
// callers may while authentication is optional.
func actingAs(c *gin.Context, cfg *config.Config, id string) bool {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return !cfg.AuthRequired
	}
	return principal.ID == id
}

func serverError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	utils.InternalServerError(c, "Server error. Please try again later.")
}
