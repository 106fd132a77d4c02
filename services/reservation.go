package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"parkingreserve/database"
	"parkingreserve/metrics"
	"parkingreserve/models"
	"parkingreserve/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReservationService 預約狀態轉換：Available -> Occupied（預約）、Occupied -> Available（結帳）
//
// 一個車位同時最多一筆預約。檢查與佔用在同一個交易內以條件式 UPDATE 完成，
// 不依賴程序內的鎖，多個實例同時執行也成立。
type ReservationService struct {
	db        *gorm.DB
	txTimeout time.Duration
	now       func() time.Time
}

func NewReservationService(db *gorm.DB, txTimeout time.Duration) *ReservationService {
	return &ReservationService{
		db:        db,
		txTimeout: txTimeout,
		now:       time.Now,
	}
}

// ReservationView 查看預約時回傳的內容
type ReservationView struct {
	Reservation models.Reservation
	QRImage     string
	Payload     utils.TokenPayload
	Summary     models.ReservationSummary
}

// Reserve 預約車位
func (s *ReservationService) Reserve(ctx context.Context, userID, slotID int) (*models.Reservation, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	// datetime(3) 只保存到毫秒，先截斷讓回傳值與資料庫一致
	reservation := models.Reservation{
		UserID:     userID,
		SlotID:     slotID,
		ReservedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 只有仍可用的車位會被更新，競爭失敗的交易拿到 0 筆
		result := tx.Model(&models.ParkingSlot{}).
			Where("id = ? AND is_available = ?", slotID, true).
			Update("is_available", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.ParkingSlot{}).Where("id = ?", slotID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrSlotNotFound
			}
			return ErrSlotUnavailable
		}

		if err := tx.Omit(clause.Associations).Create(&reservation).Error; err != nil {
			switch {
			case database.IsDuplicateKey(err):
				return ErrSlotUnavailable
			case database.IsForeignKeyViolation(err):
				return ErrUserNotFound
			}
			return err
		}

		return tx.First(&reservation.Slot, slotID).Error
	})

	switch {
	case err == nil:
		metrics.Reservations.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, ErrSlotUnavailable):
		metrics.Reservations.WithLabelValues(metrics.ResultUnavailable).Inc()
		log.Printf("Slot %d is no longer available for user %d", slotID, userID)
		return nil, err
	case errors.Is(err, ErrNotFound):
		metrics.Reservations.WithLabelValues(metrics.ResultNotFound).Inc()
		log.Printf("Reserve rejected for user %d on slot %d: %v", userID, slotID, err)
		return nil, err
	default:
		metrics.Reservations.WithLabelValues(metrics.ResultError).Inc()
		log.Printf("Failed to reserve slot %d for user %d: %v", slotID, userID, err)
		return nil, persistenceError("reserve parking slot", err)
	}

	log.Printf("Reservation %d created: user %d holds slot %s", reservation.ReservationID, userID, reservation.Slot.SlotNumber)
	return &reservation, nil
}

// View 查看預約並產生 QR Code，憑證內容第一次查看時寫回資料庫
func (s *ReservationService) View(ctx context.Context, reservationID, userID int) (*ReservationView, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	reservation, err := loadOwnedReservation(s.db.WithContext(ctx), reservationID, userID, "User", "Slot")
	if err != nil {
		return nil, err
	}

	image, payload, err := utils.EncodeToken(
		reservation.ReservationID,
		reservation.User.Email,
		reservation.Slot.SlotNumber,
		reservation.ReservedAt,
	)
	if err != nil {
		log.Printf("Failed to encode token for reservation %d: %v", reservationID, err)
		return nil, err
	}

	if reservation.QRCodeData == "" {
		// 內容只由不可變欄位決定，同時寫入結果相同
		err := s.db.WithContext(ctx).Model(&models.Reservation{}).
			Where("id = ? AND (qr_code_data IS NULL OR qr_code_data = ?)", reservation.ReservationID, "").
			Update("qr_code_data", payload).Error
		if err != nil {
			log.Printf("Failed to store token payload for reservation %d: %v", reservationID, err)
			return nil, persistenceError("store token payload", err)
		}
		reservation.QRCodeData = payload
	}

	decoded, err := utils.DecodeTokenPayload(payload)
	if err != nil {
		return nil, err
	}

	return &ReservationView{
		Reservation: *reservation,
		QRImage:     image,
		Payload:     decoded,
		Summary:     reservation.ToSummary(),
	}, nil
}

// Checkout 結帳離場：釋放車位並刪除預約，兩者在同一交易
func (s *ReservationService) Checkout(ctx context.Context, reservationID, userID int) (string, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var slotNumber string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 第一個敘述就是寫入，先取得寫鎖再讀取，之後的檢查失敗會整筆回滾
		owned := tx.Model(&models.Reservation{}).
			Select("slot_id").
			Where("id = ? AND user_id = ?", reservationID, userID)
		if err := tx.Model(&models.ParkingSlot{}).
			Where("id = (?)", owned).
			Update("is_available", true).Error; err != nil {
			return err
		}

		reservation, err := loadOwnedReservation(tx, reservationID, userID, "Slot")
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", reservation.ReservationID).Delete(&models.Reservation{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 另一個請求已先完成結帳
			return ErrNotFound
		}

		slotNumber = reservation.Slot.SlotNumber
		return nil
	})

	switch {
	case err == nil:
		metrics.Checkouts.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, ErrForbidden):
		metrics.Checkouts.WithLabelValues(metrics.ResultForbidden).Inc()
		return "", err
	case errors.Is(err, ErrNotFound):
		metrics.Checkouts.WithLabelValues(metrics.ResultNotFound).Inc()
		return "", err
	default:
		metrics.Checkouts.WithLabelValues(metrics.ResultError).Inc()
		log.Printf("Failed to checkout reservation %d for user %d: %v", reservationID, userID, err)
		return "", persistenceError("checkout reservation", err)
	}

	log.Printf("Reservation %d checked out, slot %s is available again", reservationID, slotNumber)
	return slotNumber, nil
}

// ListMine 查詢會員自己的預約，最新的在前
func (s *ReservationService) ListMine(ctx context.Context, userID int) ([]models.ReservationSummary, error) {
	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var reservations []models.Reservation
	if err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Slot").
		Where("user_id = ?", userID).
		Order("reserved_at DESC").
		Order("id DESC").
		Find(&reservations).Error; err != nil {
		log.Printf("Failed to list reservations for user %d: %v", userID, err)
		return nil, persistenceError("list reservations", err)
	}

	summaries := make([]models.ReservationSummary, len(reservations))
	for i := range reservations {
		summaries[i] = reservations[i].ToSummary()
	}
	return summaries, nil
}

// Verify 驗證掃描到的憑證是否對應到仍有效的預約
func (s *ReservationService) Verify(ctx context.Context, payload string) (*utils.TokenPayload, error) {
	token, err := utils.DecodeTokenPayload(payload)
	if err != nil {
		return nil, err
	}
	reservedAt, err := token.ReservedTime()
	if err != nil {
		return nil, fmt.Errorf("%w: reserved_at: %v", utils.ErrInvalidToken, err)
	}

	ctx, cancel := withTimeout(ctx, s.txTimeout)
	defer cancel()

	var reservation models.Reservation
	if err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Slot").
		First(&reservation, token.ReservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Token for reservation %d does not match an active reservation", token.ReservationID)
			return nil, ErrNotFound
		}
		log.Printf("Failed to verify token for reservation %d: %v", token.ReservationID, err)
		return nil, persistenceError("verify token", err)
	}

	if reservation.User.Email != token.UserEmail ||
		reservation.Slot.SlotNumber != token.SlotNumber ||
		!reservation.ReservedAt.Equal(reservedAt) {
		log.Printf("Token fields do not match reservation %d", token.ReservationID)
		return nil, ErrNotFound
	}
	return &token, nil
}

// VerifyImage 先從 QR Code 圖片讀出憑證再驗證
func (s *ReservationService) VerifyImage(ctx context.Context, image string) (*utils.TokenPayload, error) {
	payload, err := utils.DecodeQRImageDataURI(image)
	if err != nil {
		return nil, err
	}
	return s.Verify(ctx, payload)
}

func loadOwnedReservation(db *gorm.DB, reservationID, userID int, preloads ...string) (*models.Reservation, error) {
	for _, p := range preloads {
		db = db.Preload(p)
	}

	var reservation models.Reservation
	if err := db.First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("Failed to load reservation %d: %v", reservationID, err)
		return nil, persistenceError("load reservation", err)
	}

	if reservation.UserID != userID {
		log.Printf("Unauthorized access: user %d attempted reservation %d owned by user %d", userID, reservationID, reservation.UserID)
		return nil, ErrForbidden
	}
	return &reservation, nil
}
