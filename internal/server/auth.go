package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"plantcare/internal/auth"
	"plantcare/internal/models"
)

const (
	ownerKey   = "owner"
	sessionKey = "session"
)

type loginRequest struct {
	Username string `json:"username"`
}

// handleLogin opens a session for the username and sets the session cookie.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, err := s.sessions.Create(req.Username)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.setSessionCookie(c, sess.Token, int(s.sessions.TTL().Seconds()))
	s.logger.Info("login", "owner", sess.OwnerID)
	respondSuccess(c, http.StatusOK, gin.H{"user": sess, "token": sess.Token})
}

// handleLogout revokes the current session and clears the cookie.
func (s *Server) handleLogout(c *gin.Context) {
	sess := c.MustGet(sessionKey).(auth.Session)
	s.sessions.Revoke(sess.Token)
	s.setSessionCookie(c, "", -1)
	respondSuccess(c, http.StatusOK, gin.H{"status": "logged out"})
}

// handleMe returns the authenticated owner.
func (s *Server) handleMe(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"user": c.MustGet(sessionKey).(auth.Session)})
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", false, true)
}

// requireOwner resolves the session from the cookie or a bearer token and
// aborts with 401 when there is none.
func (s *Server) requireOwner(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		if cookie, err := c.Cookie(auth.CookieName); err == nil {
			token = cookie
		}
	}

	sess, err := s.sessions.Lookup(token)
	if err != nil {
		s.respondError(c, models.ErrUnauthenticated)
		return
	}
	c.Set(sessionKey, sess)
	c.Set(ownerKey, sess.OwnerID)
	c.Next()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// owner returns the authenticated owner id set by requireOwner.
func owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}
