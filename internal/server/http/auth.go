package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// AuthResolver maps a bearer token to the user id that owns the
// session, per spec §6's "bearer auth". The core never validates
// tokens itself; that boundary lives here.
type AuthResolver interface {
	ResolveUserID(ctx context.Context, token string) (string, error)
}

// TokenIsUserResolver treats the bearer token itself as the user id,
// for deployments with no separate identity service.
type TokenIsUserResolver struct{}

func (TokenIsUserResolver) ResolveUserID(_ context.Context, token string) (string, error) {
	return token, nil
}

// RemoteAuthResolver calls an external identity service to exchange a
// bearer token for a user id.
type RemoteAuthResolver struct {
	ServiceURL string
	ServiceKey string
	HTTPClient *http.Client
}

func NewRemoteAuthResolver(serviceURL, serviceKey string) *RemoteAuthResolver {
	return &RemoteAuthResolver{
		ServiceURL: serviceURL,
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (r *RemoteAuthResolver) ResolveUserID(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.ServiceURL+"/whoami", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", bearerPrefix+token)
	if r.ServiceKey != "" {
		req.Header.Set("X-Service-Key", r.ServiceKey)
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.UserID, nil
}

// extractBearer pulls the raw token from an Authorization header.
func extractBearer(header string) string {
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}
	return header
}

// authMiddleware resolves the caller's user id and stashes it plus the
// raw token on the gin context for downstream handlers.
func (s *Server) authMiddleware(c *gin.Context) {
	token := extractBearer(c.GetHeader("Authorization"))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	userID, err := s.auth.ResolveUserID(c.Request.Context(), token)
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not resolve identity"})
		return
	}
	c.Set("user_id", userID)
	c.Set("auth_token", token)
	c.Next()
}
