package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

// JWTExpiration token 有效時間
var JWTExpiration = time.Hour

// InitJWTSecret 設定簽章金鑰，未提供時產生隨機金鑰（重啟後舊 token 失效）
func InitJWTSecret(secret string, expiration time.Duration) {
	if expiration > 0 {
		JWTExpiration = expiration
	}
	if secret != "" {
		JWTSecret = []byte(secret)
		return
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}
	JWTSecret = []byte(hex.EncodeToString(buf))
	log.Println("JWT_SECRET not set, generated a random secret for this process")
}

// GenerateToken 簽發登入用 token
func GenerateToken(userID int, email string) (string, error) {
	if len(JWTSecret) == 0 {
		return "", errors.New("jwt secret is not initialized")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(JWTExpiration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(JWTSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken 驗證 token 並取出 user_id
func ParseToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return JWTSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("%w: missing or invalid user_id", jwt.ErrTokenInvalidClaims)
	}
	return int(userID), nil
}
