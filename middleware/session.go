package middleware

import (
	"net/http"
	"time"

	"github.com/AnTengye/projectbrief/config"
	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionHeader carries the session token in both directions.
	SessionHeader = "X-Session-Token"
	// SessionCookie is the cookie alternative to SessionHeader.
	SessionCookie = "session"
)

// SessionClaims identifies one form session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a token for sessionID
func IssueSessionToken(sessionID string, cfg *config.SessionConfig) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(cfg.TTLHours) * time.Hour)

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseSessionToken returns the session id of a valid token.
func ParseSessionToken(tokenString string, cfg *config.SessionConfig) (string, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.SessionID, nil
}

// Session resolves the caller's form session. A missing, expired or forged
// token starts a new session; the new token is returned in SessionHeader and
// SessionCookie.
func Session(cfg *config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader(SessionHeader)
		if tokenString == "" {
			tokenString, _ = c.Cookie(SessionCookie)
		}

		sessionID := ""
		if tokenString != "" {
			if id, err := ParseSessionToken(tokenString, cfg); err == nil {
				sessionID = id
			} else {
				logger.Debug(c.Request.Context(), "session token rejected", "error", err)
			}
		}

		if sessionID == "" {
			sessionID = uuid.New().String()
			token, expiresAt, err := IssueSessionToken(sessionID, cfg)
			if err != nil {
				logger.Error(c.Request.Context(), "failed to issue session token", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(c, "Failed to start session"))
				return
			}
			c.Header(SessionHeader, token)
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", false, true)
		}

		c.Set(string(logger.SessionIDKey), sessionID)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), sessionID))

		c.Next()
	}
}

// GetSessionID gets the session id from gin context
func GetSessionID(c *gin.Context) string {
	if id, exists := c.Get(string(logger.SessionIDKey)); exists {
		return id.(string)
	}
	return ""
}
