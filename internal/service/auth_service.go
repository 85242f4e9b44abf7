package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-file-organizer/internal/model"
	"go-file-organizer/pkg/apierror"
)

const (
	roleOperator   = "operator"
	tokenTypeAPI   = "access"
	minSecretBytes = 16
)

// AuthService issues and validates HS256 bearer tokens signed with a shared
// secret. There are no user accounts; the subject is free text.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(secret string, ttl time.Duration) (*AuthService, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("auth secret must be at least %d bytes", minSecretBytes)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth token ttl must be positive")
	}

	return &AuthService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *AuthService) IssueToken(subject string) (model.TokenResponse, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return model.TokenResponse{}, apierror.BadRequest("subject is required", "")
	}

	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": roleOperator,
		"typ":  tokenTypeAPI,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return model.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierror.Wrap(model.ErrTokenExpired, "UNAUTHORIZED", "token expired", "", http.StatusUnauthorized)
		}
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token", "", http.StatusUnauthorized)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token claims", "", http.StatusUnauthorized)
	}

	if typ, _ := claimsMap["typ"].(string); typ != tokenTypeAPI {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token type", "", http.StatusUnauthorized)
	}

	claims := &model.AuthClaims{}
	claims.Subject, _ = claimsMap["sub"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.Subject == "" {
		return nil, apierror.Wrap(model.ErrUnauthorized, "UNAUTHORIZED", "invalid token subject", "", http.StatusUnauthorized)
	}

	return claims, nil
}
