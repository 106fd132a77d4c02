package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
)

// TokenAppVersion 憑證格式版本，掃描端依此判斷欄位
const TokenAppVersion = "1.0"

const qrDataURIPrefix = "data:image/png;base64,"

// reservedAtLayout 不帶時區的 UTC 時間，秒以下為 0 時省略小數
const reservedAtLayout = "2006-01-02T15:04:05"

var ErrInvalidToken = errors.New("invalid reservation token")

// TokenPayload 預約憑證內容，欄位順序即為序列化順序
type TokenPayload struct {
	ReservationID int    `json:"reservation_id"`
	UserEmail     string `json:"user_email"`
	SlotNumber    string `json:"slot_number"`
	ReservedAt    string `json:"reserved_at"`
	AppVersion    string `json:"app_version"`
}

func NewTokenPayload(reservationID int, userEmail, slotNumber string, reservedAt time.Time) TokenPayload {
	return TokenPayload{
		ReservationID: reservationID,
		UserEmail:     userEmail,
		SlotNumber:    slotNumber,
		ReservedAt:    formatReservedAt(reservedAt),
		AppVersion:    TokenAppVersion,
	}
}

// ReservedTime 解析 reserved_at，沒有時區的視為 UTC
func (p TokenPayload) ReservedTime() (time.Time, error) {
	if t, err := time.Parse(reservedAtLayout, p.ReservedAt); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, p.ReservedAt)
}

func formatReservedAt(t time.Time) string {
	t = t.UTC()
	s := t.Format(reservedAtLayout)
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// MarshalTokenPayload 序列化為固定格式：欄位間以 ", " 分隔、鍵值以 ": " 分隔，非 ASCII 字元一律 \uXXXX
func MarshalTokenPayload(p TokenPayload) string {
	var b strings.Builder
	b.WriteString(`{"reservation_id": `)
	b.WriteString(strconv.Itoa(p.ReservationID))
	b.WriteString(`, "user_email": `)
	writeASCIIString(&b, p.UserEmail)
	b.WriteString(`, "slot_number": `)
	writeASCIIString(&b, p.SlotNumber)
	b.WriteString(`, "reserved_at": `)
	writeASCIIString(&b, p.ReservedAt)
	b.WriteString(`, "app_version": `)
	writeASCIIString(&b, p.AppVersion)
	b.WriteByte('}')
	return b.String()
}

func writeASCIIString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				b.WriteRune(r)
			case r > 0xffff:
				r1, r2 := utf16.EncodeRune(r)
				fmt.Fprintf(b, `\u%04x\u%04x`, r1, r2)
			default:
				fmt.Fprintf(b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
}

// DecodeTokenPayload 解析憑證 JSON，缺欄位或版本不符都視為無效
func DecodeTokenPayload(payload string) (TokenPayload, error) {
	var p TokenPayload
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return TokenPayload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if dec.More() {
		return TokenPayload{}, fmt.Errorf("%w: trailing data after payload", ErrInvalidToken)
	}

	switch {
	case p.AppVersion != TokenAppVersion:
		return TokenPayload{}, fmt.Errorf("%w: unsupported app_version %q", ErrInvalidToken, p.AppVersion)
	case p.ReservationID <= 0:
		return TokenPayload{}, fmt.Errorf("%w: missing reservation_id", ErrInvalidToken)
	case p.UserEmail == "":
		return TokenPayload{}, fmt.Errorf("%w: missing user_email", ErrInvalidToken)
	case p.SlotNumber == "":
		return TokenPayload{}, fmt.Errorf("%w: missing slot_number", ErrInvalidToken)
	}
	if _, err := p.ReservedTime(); err != nil {
		return TokenPayload{}, fmt.Errorf("%w: reserved_at: %v", ErrInvalidToken, err)
	}
	return p, nil
}

// EncodeToken 產生 QR Code（data URI）與憑證 JSON
func EncodeToken(reservationID int, userEmail, slotNumber string, reservedAt time.Time) (string, string, error) {
	payload := MarshalTokenPayload(NewTokenPayload(reservationID, userEmail, slotNumber, reservedAt))

	image, err := EncodeQRImage(payload)
	if err != nil {
		return "", "", err
	}
	return image, payload, nil
}

// EncodeQRImage 將內容編成 PNG QR Code，每個模組 10px，保留 4 模組邊界
func EncodeQRImage(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("failed to build qr code: %w", err)
	}
	pngBytes, err := qr.PNG(-10)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}
	return qrDataURIPrefix + base64.StdEncoding.EncodeToString(pngBytes), nil
}

// DecodeQRImageDataURI 接受 data URI 或純 base64 的 PNG
func DecodeQRImageDataURI(image string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(image, qrDataURIPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: image is not valid base64: %v", ErrInvalidToken, err)
	}
	return DecodeTokenImage(raw)
}

// DecodeTokenImage 從 PNG QR Code 讀回原始內容
func DecodeTokenImage(pngBytes []byte) (string, error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return "", fmt.Errorf("%w: image is not a png: %v", ErrInvalidToken, err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	}
	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: no qr code found: %v", ErrInvalidToken, err)
	}
	return result.GetText(), nil
}
