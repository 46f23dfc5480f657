package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/authgard/authgard/internal/auth"
	"github.com/authgard/authgard/internal/middleware"
	"github.com/authgard/authgard/internal/models"
	"github.com/authgard/authgard/pkg/errors"
	"github.com/authgard/authgard/pkg/response"
)

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Domain string
	Secure bool
}

// AuthHandler exposes registration, login, and session lifecycle endpoints.
// Controllers stay thin: they marshal requests, capture client metadata,
// and hand everything to the auth service.
type AuthHandler struct {
	svc    *auth.Service
	cookie CookieConfig
}

func NewAuthHandler(svc *auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	SessionID    string    `json:"session_id"`
	RefreshToken string    `json:"refresh_token"`
	ExpiredAt    time.Time `json:"expired_at"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session, err := h.svc.Login(c.Request.Context(), auth.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, session)

	response.Success(c, http.StatusOK, sessionResponse{
		SessionID:    session.SessionID,
		RefreshToken: session.RefreshToken,
		ExpiredAt:    session.ExpiredAt,
	})
}

// POST /api/auth/logout
//
// Deliberately public: logout is forgiving, so a missing or stale cookie
// still yields a success response.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.SessionCookie)

	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}

	h.clearSessionCookie(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GET /api/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	sessionID := c.GetString(middleware.CtxSessionIDKey)

	session, err := h.svc.GetValidSession(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id": session.SessionID,
		"user_id":    session.UserID,
		"ip_address": session.IPAddress,
		"user_agent": session.UserAgent,
		"created_at": session.CreatedAt,
		"expired_at": session.ExpiredAt,
	})
}

// POST /api/auth/extend
func (h *AuthHandler) Extend(c *gin.Context) {
	sessionID := c.GetString(middleware.CtxSessionIDKey)

	extended, err := h.svc.ExtendSession(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !extended {
		response.Error(c, errors.ErrSessionNotFound)
		return
	}

	// refresh the cookie so its Expires attribute follows the new window
	session, err := h.svc.GetValidSession(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, session)

	response.Success(c, http.StatusOK, gin.H{
		"extended":   true,
		"expired_at": session.ExpiredAt,
	})
}

// POST /api/auth/logout-all
//
// Expires every other session of the current user ("log out everywhere
// else"); the calling session stays valid.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	sessionID := c.GetString(middleware.CtxSessionIDKey)

	if err := h.svc.TerminateAllUserSessions(c.Request.Context(), userID, sessionID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	user, err := h.svc.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *models.Session) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.SessionID,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  session.ExpiredAt,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
