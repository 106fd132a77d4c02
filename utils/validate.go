package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength 註冊與建立帳號共用的密碼長度下限
const MinPasswordLength = 8

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrTooShort      = errors.New("too short")
)

// ValidateEmail 基本 email 格式檢查：需含 @，且 @ 之後的網域含有 .
func ValidateEmail(email string) error {
	parts := strings.Split(email, "@")
	if email == "" || len(parts) < 2 || !strings.Contains(parts[1], ".") {
		return fmt.Errorf("%w: invalid email format", ErrInvalidFormat)
	}
	return nil
}

// ValidatePassword 密碼長度檢查，以字元數計算
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrTooShort)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrTooShort, MinPasswordLength)
	}
	return nil
}
