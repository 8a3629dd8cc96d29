package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/sewasew/media-service/internal/config"
)

const contextKey = "auth"

// PermissionUpload gates every mutating media route.
const PermissionUpload = "media:upload"

// Identity is the verified caller of an upload request. UserID becomes the
// per-user storage namespace, so it must come from a verified token, never
// from request input.
type Identity struct {
	UserID      string
	Permissions []string
}

func (id *Identity) HasPermission(p string) bool {
	for _, have := range id.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

type cachedJWKS struct {
	set       jwk.Set
	expiresAt time.Time
}

// JWKSClient fetches and caches the auth service's key set. A stale cache is
// served when a refresh fails, so token verification survives short auth
// service outages.
type JWKSClient struct {
	url        string
	cache      *cachedJWKS
	cacheTTL   time.Duration
	mu         sync.RWMutex
	httpClient *http.Client
}

func NewJWKSClient(url string, cacheTTLSeconds int) *JWKSClient {
	ttl := time.Duration(cacheTTLSeconds) * time.Second
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	return &JWKSClient{
		url:        url,
		cacheTTL:   ttl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *JWKSClient) GetKeySet(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	if c.cache != nil && time.Now().Before(c.cache.expiresAt) {
		set := c.cache.set
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil && time.Now().Before(c.cache.expiresAt) {
		return c.cache.set, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.cache != nil {
			return c.cache.set, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.cache != nil {
			return c.cache.set, nil
		}
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	set, err := jwk.ParseReader(resp.Body, jwk.WithPEM(true))
	if err != nil {
		if c.cache != nil {
			return c.cache.set, nil
		}
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	c.cache = &cachedJWKS{
		set:       set,
		expiresAt: time.Now().Add(c.cacheTTL),
	}

	return set, nil
}

// VerifyToken validates the signature, issuer, audience and subject of a
// bearer token and extracts the caller identity.
func VerifyToken(ctx context.Context, tokenString string, jwksClient *JWKSClient, cfg config.AuthConfig) (*Identity, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid token format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode token header: %w", err)
	}

	var header map[string]interface{}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse token header: %w", err)
	}

	kid, ok := header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing kid in header")
	}

	keySet, err := jwksClient.GetKeySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("key not found for kid: %s", kid)
	}

	var publicKey interface{}
	if err := key.Raw(&publicKey); err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	verifiedToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := verifiedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if iss, ok := claims["iss"].(string); !ok || iss != cfg.Issuer {
		return nil, fmt.Errorf("invalid issuer")
	}

	if err := checkAudience(claims["aud"], cfg.Audience); err != nil {
		return nil, err
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}

	var permissions []string
	if raw, ok := claims["permissions"].([]interface{}); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				permissions = append(permissions, s)
			}
		}
	}

	return &Identity{
		UserID:      sub,
		Permissions: permissions,
	}, nil
}

func checkAudience(aud interface{}, want string) error {
	switch v := aud.(type) {
	case string:
		if v != want {
			return fmt.Errorf("invalid audience")
		}
	case []interface{}:
		for _, a := range v {
			if s, ok := a.(string); ok && s == want {
				return nil
			}
		}
		return fmt.Errorf("invalid audience")
	}
	return nil
}

// Middleware verifies the Authorization header and stores the caller
// Identity on the gin context.
func Middleware(jwksClient *JWKSClient, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := VerifyToken(c.Request.Context(), token, jwksClient, cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(contextKey, identity)
		c.Next()
	}
}

// RequirePermission rejects authenticated callers lacking the permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}
		if !identity.HasPermission(permission) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the verified caller set by Middleware.
func GetIdentity(c *gin.Context) (*Identity, bool) {
	v, exists := c.Get(contextKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok
}

// SetIdentity injects an identity directly, for handler tests that bypass
// token verification.
func SetIdentity(c *gin.Context, identity *Identity) {
	c.Set(contextKey, identity)
}
