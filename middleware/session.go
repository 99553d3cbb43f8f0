package middleware

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"

	"autoshop/utils"
)

// SessionIDKey is the gin context key holding the customer's session id.
const SessionIDKey = "sessionID"

// SessionCodec signs and encrypts customer session ids for cookies and headers.
type SessionCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewSessionCodec decodes base64 keys. Empty keys are replaced with random ones, so
// sessions do not survive a restart.
func NewSessionCodec(hashKeyB64, blockKeyB64 string, secure bool) (*SessionCodec, error) {
	hashKey, err := decodeKey(hashKeyB64, 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := decodeKey(blockKeyB64, 32)
	if err != nil {
		return nil, err
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(0)
	return &SessionCodec{sc: sc, secure: secure}, nil
}

func decodeKey(b64 string, size int) ([]byte, error) {
	if b64 == "" {
		key := securecookie.GenerateRandomKey(size)
		if key == nil {
			return nil, errors.New("failed to generate cookie key")
		}
		return key, nil
	}
	key, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	switch len(key) {
	case 16, 24, 32, 64:
		return key, nil
	}
	return nil, errors.New("cookie key must decode to 16, 24, 32 or 64 bytes")
}

// Encode produces the opaque token handed to the customer.
func (s *SessionCodec) Encode(id string) (string, error) {
	return s.sc.Encode(utils.SessionCookieName, id)
}

func (s *SessionCodec) Decode(token string) (string, error) {
	var id string
	if err := s.sc.Decode(utils.SessionCookieName, token, &id); err != nil {
		return "", err
	}
	return id, nil
}

// Issue sets the session cookie and returns the token for header-based clients.
func (s *SessionCodec) Issue(c *gin.Context, id string) (string, error) {
	token, err := s.Encode(id)
	if err != nil {
		return "", err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func (s *SessionCodec) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
}

// CustomerSessionMiddleware resolves the session token from the X-Session-ID header or the
// session cookie. Requests without a valid token are rejected.
func CustomerSessionMiddleware(codec *SessionCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(utils.SessionHeader))
		if token == "" {
			if ck, err := c.Cookie(utils.SessionCookieName); err == nil {
				token = ck
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No session. Start one with POST /api/session."})
			return
		}
		id, err := codec.Decode(token)
		if err != nil || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			return
		}
		c.Set(SessionIDKey, id)
		c.Next()
	}
}
