package repository

import (
	"event_messaging_service/internal/messaging/domain"

	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification records.
// Notification rows are owned exclusively by the fan-out; deleting a message
// does not retract a delivered notification.
type NotificationRepository interface {
	AutoMigrate() error
	Create(notification *domain.Notification) error
	GetByUserID(userID string, page, limit int) ([]domain.Notification, int64, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAllAsRead(userID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository create a NotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Notification{})
}

func (r *postgresNotificationRepository) Create(notification *domain.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByUserID(userID string, page, limit int) ([]domain.Notification, int64, error) {
	var notifications []domain.Notification
	var total int64

	r.db.Model(&domain.Notification{}).Where("user_id = ?", userID).Count(&total)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Notification{}).Where("user_id = ? AND read_status = false", userID).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAllAsRead(userID string) error {
	return r.db.Model(&domain.Notification{}).Where("user_id = ? AND read_status = false", userID).Update("read_status", true).Error
}
