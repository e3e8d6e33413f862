package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/harshaislive/bespoke/internal/config"
	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/repository"
	"github.com/harshaislive/bespoke/internal/util"
	"github.com/harshaislive/bespoke/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	magicLinkKeyPrefix = "bespoke:magic:"
	denylistKeyPrefix  = "bespoke:denylist:"
)

// AuthService implements the passwordless flow: a one-time emailed link is
// exchanged for a signed session token. Link secrets are stored hashed; the
// raw secret only ever travels in the email.
type AuthService struct {
	Users  *repository.UserRepository
	rdb    *redis.Client
	mailer Mailer
	cfg    *config.Config
}

func NewAuthService(users *repository.UserRepository, rdb *redis.Client, mailer Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		Users:  users,
		rdb:    rdb,
		mailer: mailer,
		cfg:    cfg,
	}
}

// RequestMagicLink mints a one-time token for the address and emails the
// sign-in link. Unknown addresses get an employee row on first contact.
func (s *AuthService) RequestMagicLink(ctx context.Context, email, redirectTo string) error {
	user, err := s.Users.FindOrCreateByEmail(email)
	if err != nil {
		return err
	}

	tokenID := uuid.New().String()
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return err
	}
	secret := hex.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	ttl := time.Duration(s.cfg.JWT.LinkTTLMinutes) * time.Minute
	value := user.ID + ":" + string(hash)
	if err := s.rdb.Set(ctx, magicLinkKeyPrefix+tokenID, value, ttl).Err(); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/verify?token=%s", strings.TrimRight(redirectTo, "/"),
		url.QueryEscape(tokenID+"."+secret))

	body := fmt.Sprintf("Hello,\n\nFollow this link to sign in to the Beforest assessment:\n\n%s\n\nThe link is valid for %d minutes and can be used once.\n", link, s.cfg.JWT.LinkTTLMinutes)
	if err := s.mailer.Send(email, "Your Beforest sign-in link", body); err != nil {
		// The token is useless without the email; drop it.
		s.rdb.Del(ctx, magicLinkKeyPrefix+tokenID)
		return err
	}

	logger.Log.Info("Magic link issued", zap.String("email", email))
	return nil
}

// VerifyMagicLink redeems a one-time link token and returns a signed JWT.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (string, *model.User, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", nil, util.ErrInvalidLinkToken
	}
	tokenID, secret := parts[0], parts[1]

	key := magicLinkKeyPrefix + tokenID
	value, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, util.ErrInvalidLinkToken
	}
	if err != nil {
		return "", nil, err
	}
	// One-time: the token is consumed regardless of the comparison outcome.
	s.rdb.Del(ctx, key)

	stored := strings.SplitN(value, ":", 2)
	if len(stored) != 2 {
		return "", nil, util.ErrInvalidLinkToken
	}
	userID, hash := stored[0], stored[1]

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return "", nil, util.ErrInvalidLinkToken
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		return "", nil, err
	}

	if err := s.Users.TouchLastLogin(user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	jwt, err := util.GenerateJWT(user, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}

	logger.Log.Info("Magic link verified", zap.String("user_id", user.ID))
	return jwt, user, nil
}

// SignOut denylists the presented token for its remaining lifetime.
func (s *AuthService) SignOut(ctx context.Context, rawToken string) error {
	claims, err := util.ParseJWT(rawToken, s.cfg.JWT.Secret)
	if err != nil {
		// Already invalid; nothing to revoke.
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, denylistKeyPrefix+rawToken, "1", ttl).Err()
}

// IsRevoked reports whether a token has been signed out.
func (s *AuthService) IsRevoked(ctx context.Context, rawToken string) bool {
	n, err := s.rdb.Exists(ctx, denylistKeyPrefix+rawToken).Result()
	if err != nil {
		logger.Log.Warn("Denylist lookup failed", zap.Error(err))
		return false
	}
	return n > 0
}

// GetCurrentUser resolves the authenticated user from gin context claims.
func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, _ := s.Users.FindByID(claims.UserID)
	return user
}
