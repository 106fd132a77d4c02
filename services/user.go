package services

import (
	"context"
	"errors"
	"log"
	"time"

	"parkingreserve/database"
	"parkingreserve/models"
	"parkingreserve/utils"

	"gorm.io/gorm"
)

// UserService 會員帳號與密碼驗證
type UserService struct {
	db        *gorm.DB
	txTimeout time.Duration
}

func NewUserService(db *gorm.DB, txTimeout time.Duration) *UserService {
	return &UserService{db: db, txTimeout: txTimeout}
}

// Register 註冊會員，email 重複以資料庫唯一鍵為準
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	// 預先檢查只是省下一次 bcrypt，真正的保證是唯一索引
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		log.Printf("Failed to check for duplicate email: %v", err)
		return nil, persistenceError("check duplicate email", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateEmail
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return nil, err
	}

	user := &models.User{Email: email, PasswordHash: hashedPassword}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		log.Printf("Failed to register user: %v", err)
		return nil, persistenceError("register user", err)
	}

	log.Printf("Successfully registered user with ID %d", user.ID)
	return user, nil
}

// Authenticate 驗證 email 與密碼
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Login failed: user %s not found", email)
			return nil, ErrInvalidCredentials
		}
		log.Printf("Failed to login user: %v", err)
		return nil, persistenceError("authenticate user", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		log.Printf("Login failed: invalid password for user %d", user.ID)
		return nil, ErrInvalidCredentials
	}

	log.Printf("User with ID %d logged in successfully", user.ID)
	return &user, nil
}

// GetByID 根據ID查詢會員
func (s *UserService) GetByID(ctx context.Context, id int) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Printf("Failed to get user by ID %d: %v", id, err)
		return nil, persistenceError("get user", err)
	}
	return &user, nil
}

// Delete 刪除會員，同一交易內釋放其預約的車位並刪除預約
func (s *UserService) Delete(ctx context.Context, id int) error {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		held := tx.Model(&models.Reservation{}).Select("slot_id").Where("user_id = ?", id)
		if err := tx.Model(&models.ParkingSlot{}).
			Where("id IN (?)", held).
			Update("is_available", true).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		log.Printf("Failed to delete user %d: %v", id, err)
		return persistenceError("delete user", err)
	}

	log.Printf("Successfully deleted user with ID %d", id)
	return nil
}
