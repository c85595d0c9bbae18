package services

import (
	"context"
	"errors"
	"fmt"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"agency-backend/models"
)

// ErrDuplicateReference is returned by Create when the reference code is
// already taken.
var ErrDuplicateReference = errors.New("duplicate_reference")

// BookingRepository is the persistence collaborator of the booking flow.
// Create assigns ID and timestamps on b.
type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	AttachNotification(ctx context.Context, id uint, messageID string) error
}

type GormBookingRepository struct {
	DB *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{DB: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if err := r.DB.WithContext(ctx).Create(b).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateReference, b.Reference)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *GormBookingRepository) AttachNotification(ctx context.Context, id uint, messageID string) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("telegram_msg_id", messageID)
	if res.Error != nil {
		return fmt.Errorf("failed to attach notification to booking %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isDuplicateKeyError detects unique constraint violations both with and
// without gorm's TranslateError.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1062
	}
	return false
}
