package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// context 中存放的鍵
const (
	UserIDKey    = "user_id"
	RequestIDKey = "request_id"
)

// currentUserID 取出驗證後的會員 ID，取不到時直接回 401
func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "user_id not found in token", "ERR_NO_USER_ID")
		return 0, false
	}
	userID, ok := value.(int)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "invalid user_id type", "ERR_INVALID_USER_ID")
		return 0, false
	}
	return userID, true
}

// paramID 解析路徑上的數字 ID
func paramID(c *gin.Context, name, message string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, message, "id must be a positive integer", "ERR_INVALID_ID")
		return 0, false
	}
	return id, true
}
