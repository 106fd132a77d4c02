package handlers

import (
	"log"
	"net/http"
	"strings"

	"parkingreserve/services"
	"parkingreserve/utils"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	users *services.UserService
}

func NewMemberHandler(users *services.UserService) *MemberHandler {
	return &MemberHandler{users: users}
}

// RegisterInput 註冊資料
type RegisterInput struct {
	Email           string `json:"email" form:"email" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" binding:"required"`
}

// LoginInput 登入資料
type LoginInput struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Register 註冊會員資料檢查
func (h *MemberHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "email, password and password_confirm are required", "ERR_INVALID_INPUT")
		return
	}
	email := strings.TrimSpace(input.Email)

	// 與建立帳號時使用同一組規則，在寫入前就擋下
	if err := utils.ValidateEmail(email); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := utils.ValidatePassword(input.Password); err != nil {
		respondServiceError(c, err)
		return
	}
	if input.Password != input.PasswordConfirm {
		ErrorResponse(c, http.StatusBadRequest, "兩次輸入的密碼不一致", "passwords do not match", "ERR_PASSWORD_MISMATCH")
		return
	}

	user, err := h.users.Register(c.Request.Context(), email, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "會員註冊成功，請登入", user.ToResponse())
}

// Login 登入會員並取得 token
func (h *MemberHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBind(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "email and password are required", "ERR_INVALID_INPUT")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), strings.TrimSpace(input.Email), input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Printf("Failed to generate token for user %d: %v", user.ID, err)
		ErrorResponse(c, http.StatusInternalServerError, "登入失敗，請稍後再試", "failed to generate token", "ERR_TOKEN")
		return
	}

	SuccessResponse(c, http.StatusOK, "登入成功", gin.H{
		"token":      token,
		"expires_in": int(utils.JWTExpiration.Seconds()),
		"member":     user.ToResponse(),
	})
}

// Profile 查看個人資料
func (h *MemberHandler) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", user.ToResponse())
}

// DeleteProfile 刪除自己的帳號，連同預約一起刪除並釋放車位
func (h *MemberHandler) DeleteProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "帳號已刪除", nil)
}
