package service

import (
	"errors"
	"fmt"
	"time"

	"memo-app/src/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer     = "memo-app"
	tokenTypeAccess = "access"
)

// ErrEmptySecret JWT_SECRETが未設定
var ErrEmptySecret = errors.New("jwt secret is empty")

// JWTClaims JWT内のカスタムクレーム
type JWTClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// JWTService JWT管理サービスのインターフェース
type JWTService interface {
	GenerateAccessToken(subject string) (string, error)
	ValidateToken(tokenString string) (*JWTClaims, error)
	ValidateAccessToken(tokenString string) (string, error)
}

// jwtService JWT管理サービスの実装
type jwtService struct {
	config config.AuthConfig
	now    func() time.Time
}

// NewJWTService JWT管理サービスを作成
func NewJWTService(cfg config.AuthConfig) JWTService {
	return &jwtService{config: cfg, now: time.Now}
}

// GenerateAccessToken APIクライアント用のアクセストークンを生成
func (s *jwtService) GenerateAccessToken(subject string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", ErrEmptySecret
	}
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}

	now := s.now()
	claims := &JWTClaims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWTExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ValidateToken アクセストークンを検証
func (s *jwtService) ValidateToken(tokenString string) (*JWTClaims, error) {
	if s.config.JWTSecret == "" {
		return nil, ErrEmptySecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if claims.Type != tokenTypeAccess {
			return nil, fmt.Errorf("invalid token type")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ValidateAccessToken アクセストークンを検証してsubjectを返す
func (s *jwtService) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
