package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/cache"
	"github.com/unrealsaint/lucera2missionparser/config"
	mw "github.com/unrealsaint/lucera2missionparser/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler logs editors in against the accounts listed in config.
type AuthHandler struct {
	cache   cache.Cache
	sec     config.SecurityConfig
	editors map[string]string // username -> bcrypt hash
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *AuthHandler {
	editors := make(map[string]string, len(sec.Editors))
	for _, e := range sec.Editors {
		editors[e.Username] = e.PasswordHash
	}
	return &AuthHandler{cache: c, sec: sec, editors: editors, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=4,max=72"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, ok := h.editors[req.Username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		h.logger.Warn("editor login rejected",
			zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.issue(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	h.logger.Info("editor logged in", zap.String("editor", req.Username))
	c.JSON(http.StatusOK, gin.H{"token": token, "editor": req.Username})
}

// Logout handles POST /api/auth/logout. Requires mw.Auth.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(claims.ID))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh: the old session ends and a new
// token is issued. Requires mw.Auth.
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(claims.ID))

	token, err := h.issue(c.Request.Context(), claims.Editor())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) issue(parent context.Context, editor string) (string, error) {
	token, claims, err := mw.GenerateToken(editor, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, mw.SessionKey(claims.ID), editor, h.sec.JWTTTLH); err != nil {
		return "", err
	}
	return token, nil
}
