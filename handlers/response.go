package handlers

import (
	"errors"
	"log"
	"net/http"

	"parkingreserve/services"
	"parkingreserve/utils"

	"github.com/gin-gonic/gin"
)

// APIResponse 定義統一的 API 回應結構
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"` // omitempty 表示如果為空則不顯示
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse 返回成功的回應
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 返回失敗的回應
func ErrorResponse(c *gin.Context, statusCode int, message, err, code string) {
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Status:  false,
		Message: message,
		Error:   err,
		Code:    code,
	})
}

// respondServiceError 將服務層錯誤轉成 HTTP 回應
// 找不到與無權限對外一律回 404，避免被用來探測別人的預約
func respondServiceError(c *gin.Context, err error) {
	var persistErr *services.PersistenceError
	switch {
	case errors.Is(err, utils.ErrInvalidFormat):
		ErrorResponse(c, http.StatusBadRequest, "無效的電子郵件格式", err.Error(), "ERR_INVALID_FORMAT")
	case errors.Is(err, utils.ErrTooShort):
		ErrorResponse(c, http.StatusBadRequest, "密碼長度不足", err.Error(), "ERR_TOO_SHORT")
	case errors.Is(err, utils.ErrInvalidToken):
		ErrorResponse(c, http.StatusBadRequest, "無效的預約憑證", err.Error(), "ERR_INVALID_TOKEN")
	case errors.Is(err, services.ErrDuplicateEmail):
		ErrorResponse(c, http.StatusConflict, "該電子郵件已被註冊，請直接登入", err.Error(), "ERR_DUPLICATE_EMAIL")
	case errors.Is(err, services.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, "無效的電子郵件或密碼", err.Error(), "ERR_INVALID_CREDENTIALS")
	case errors.Is(err, services.ErrSlotUnavailable):
		ErrorResponse(c, http.StatusConflict, "車位已被預約，請選擇其他車位", err.Error(), "ERR_SLOT_UNAVAILABLE")
	case errors.Is(err, services.ErrSlotNotFound):
		ErrorResponse(c, http.StatusNotFound, "車位不存在", err.Error(), "ERR_SLOT_NOT_FOUND")
	case errors.Is(err, services.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, "會員不存在", err.Error(), "ERR_USER_NOT_FOUND")
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrForbidden):
		ErrorResponse(c, http.StatusNotFound, "預約不存在", services.ErrNotFound.Error(), "ERR_NOT_FOUND")
	case errors.As(err, &persistErr):
		log.Printf("[%s] persistence failure: %v", c.GetString(RequestIDKey), err)
		ErrorResponse(c, http.StatusServiceUnavailable, "系統忙碌，請稍後再試", "temporary failure, please retry", "ERR_PERSISTENCE")
	default:
		log.Printf("[%s] unexpected error: %v", c.GetString(RequestIDKey), err)
		ErrorResponse(c, http.StatusInternalServerError, "伺服器錯誤", "internal server error", "ERR_INTERNAL")
	}
}
