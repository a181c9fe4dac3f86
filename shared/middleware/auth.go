package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rentcare/rentcare-backend/shared/models"
	"github.com/rentcare/rentcare-backend/shared/utils"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = 24 * time.Hour

// AuthMiddleware issues and validates HS256-signed access tokens. Sessions
// are additionally tracked in Redis so tokens can be revoked before expiry;
// when the session store is down validation falls back to signature and
// expiry checks only.
type AuthMiddleware struct {
	secret []byte
}

// AccessClaims are the JWT claims carried by an access token. Subject is the
// user id for owners/admins and the embedded tenant id for tenants.
type AccessClaims struct {
	Role       string `json:"role"`
	Email      string `json:"email,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
	FlatNo     string `json:"flatNo,omitempty"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware creates the middleware from the signing secret.
func NewAuthMiddleware(secret string) (*AuthMiddleware, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT signing secret must not be empty")
	}
	return &AuthMiddleware{secret: []byte(secret)}, nil
}

// IssueToken signs an access token for the given profile and registers the
// revocable session when the session store is available.
func (am *AuthMiddleware) IssueToken(profile models.SessionProfile, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := AccessClaims{
		Role:       string(profile.Role),
		Email:      profile.Email,
		PropertyID: profile.PropertyID,
		FlatNo:     profile.FlatNo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.SubjectID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(am.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	if utils.SessionStoreAvailable() {
		if _, err := utils.CreateTokenSession(token, profile, ttl); err != nil {
			return "", time.Time{}, fmt.Errorf("failed to register session: %w", err)
		}
	}

	return token, expiresAt, nil
}

// ParseToken verifies the token signature and expiry and returns its claims.
func (am *AuthMiddleware) ParseToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// RequireAuth validates the bearer token and loads its identity into the
// request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := am.ParseToken(tokenString)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid token")
			c.Abort()
			return
		}

		// Revocation check only runs when the session store is up.
		if utils.SessionStoreAvailable() {
			if _, err := utils.GetTokenSession(tokenString); err != nil {
				utils.UnauthorizedResponse(c, "Session revoked or expired")
				c.Abort()
				return
			}
			_ = utils.TouchTokenSession(tokenString)
		}

		c.Set("subject_id", claims.Subject)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("property_id", claims.PropertyID)
		c.Set("flat_no", claims.FlatNo)

		c.Next()
	}
}

// RequireRole allows only the listed roles through.
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, allowed := range roles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}
		utils.ForbiddenResponse(c, "Insufficient permissions")
		c.Abort()
	}
}

// RequirePropertyAccess lets admins and owners through unconditionally and
// restricts tenant sessions to the property they were issued for. Owner
// visibility is deliberately not narrowed by ownerId, which stays an
// informational reference.
func (am *AuthMiddleware) RequirePropertyAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == string(models.RoleAdmin) || role == string(models.RoleOwner) {
			c.Next()
			return
		}

		if role == string(models.RoleTenant) {
			requested := c.Param("id")
			if requested != "" && requested == c.GetString("property_id") {
				c.Next()
				return
			}
			utils.ForbiddenResponse(c, "Access denied to this property")
			c.Abort()
			return
		}

		utils.ForbiddenResponse(c, "Insufficient permissions")
		c.Abort()
	}
}

// GetSessionFromContext returns the identity placed in the context by RequireAuth.
func GetSessionFromContext(c *gin.Context) models.SessionProfile {
	return models.SessionProfile{
		SubjectID:  c.GetString("subject_id"),
		Email:      c.GetString("email"),
		Role:       models.UserRole(c.GetString("role")),
		PropertyID: c.GetString("property_id"),
		FlatNo:     c.GetString("flat_no"),
	}
}

// ExtractToken extracts the JWT token from the Authorization header.
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):]
	}
	return authHeader
}
