// Package identity verifies and issues the bearer tokens that carry a
// caller's user id and platform role.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"squadup/internal/cache"
	"squadup/internal/middleware"
	"squadup/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Claims is the verified caller identity.
type Claims struct {
	UserID   uint
	Role     models.Role
	IssuedAt time.Time
	TokenID  string
}

// Actor returns the caller as seen by authorization predicates.
func (c Claims) Actor() models.Actor {
	return models.Actor{ID: c.UserID, Role: c.Role}
}

// Verifier validates HS256 tokens against a shared secret, issuer and audience.
// When a Redis client is present it also rejects tokens minted before the
// subject's last role change.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	rdb      *redis.Client
}

// NewVerifier returns a Verifier. rdb may be nil.
func NewVerifier(secret, issuer, audience string, rdb *redis.Client) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		rdb:      rdb,
	}
}

// Verify parses tokenString and returns the caller claims. Every failure is an
// UNAUTHENTICATED AppError.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, models.NewUnauthenticatedError("Authorization required")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, models.NewUnauthenticatedError("Invalid or expired token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, models.NewUnauthenticatedError("Invalid token claims")
	}

	sub, ok := mc["sub"].(string)
	if !ok {
		return Claims{}, models.NewUnauthenticatedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return Claims{}, models.NewUnauthenticatedError("Invalid user ID in token")
	}

	roleRaw, _ := mc["role"].(string)
	role, err := models.ParseRole(roleRaw)
	if err != nil {
		return Claims{}, models.NewUnauthenticatedError("Invalid role claim")
	}

	claims := Claims{UserID: uint(userID), Role: role}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	claims.TokenID, _ = mc["jti"].(string)

	stale, err := v.isStale(ctx, claims)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "role epoch lookup failed", "user_id", claims.UserID, "error", err)
	}
	if stale {
		return Claims{}, models.NewUnauthenticatedError("Token refresh required")
	}

	return claims, nil
}

func (v *Verifier) isStale(ctx context.Context, claims Claims) (bool, error) {
	if v.rdb == nil {
		return false, nil
	}
	raw, err := v.rdb.Get(ctx, cache.RoleEpochKey(claims.UserID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, err
	}
	return claims.IssuedAt.Unix() < epoch, nil
}

// BumpRoleEpoch invalidates every token issued to userID before now. Callers
// use it after a role change or account deletion.
func BumpRoleEpoch(ctx context.Context, rdb *redis.Client, userID uint) error {
	if rdb == nil {
		return nil
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	return rdb.Set(ctx, cache.RoleEpochKey(userID), now, cache.RoleEpochTTL).Err()
}

// Issuer mints tokens in the format Verifier accepts. The production identity
// provider is external; operators and tests use this.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewIssuer returns an Issuer minting tokens valid for ttl.
func NewIssuer(secret, issuer, audience string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue signs a token for userID asserting role.
func (i *Issuer) Issue(userID uint, role models.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("invalid role %q", role)
	}
	now := i.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": string(role),
		"iss":  i.issuer,
		"aud":  i.audience,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
		"jti":  uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
