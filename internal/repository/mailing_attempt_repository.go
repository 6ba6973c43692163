package repository

import (
	"github.com/mailpulse/mailpulse/internal/models"

	"gorm.io/gorm"
)

// MailingAttemptRepository 发送尝试数据访问接口
// 尝试记录只追加，不提供更新与删除。
type MailingAttemptRepository interface {
	Create(attempt *models.MailingAttempt) error
	List(filter MailingAttemptListFilter) ([]models.MailingAttempt, int64, error)
	ListByMailingIDs(mailingIDs []uint) ([]models.MailingAttempt, error)
}

// GormMailingAttemptRepository GORM 实现
type GormMailingAttemptRepository struct {
	db *gorm.DB
}

// NewMailingAttemptRepository 创建发送尝试仓库
func NewMailingAttemptRepository(db *gorm.DB) *GormMailingAttemptRepository {
	return &GormMailingAttemptRepository{db: db}
}

// Create 追加发送尝试记录
func (r *GormMailingAttemptRepository) Create(attempt *models.MailingAttempt) error {
	return r.db.Create(attempt).Error
}

// List 发送尝试列表，按尝试时间倒序
func (r *GormMailingAttemptRepository) List(filter MailingAttemptListFilter) ([]models.MailingAttempt, int64, error) {
	query := r.db.Model(&models.MailingAttempt{})

	if filter.MailingID != 0 {
		query = query.Where("mailing_id = ?", filter.MailingID)
	}
	if len(filter.MailingIDs) > 0 {
		query = query.Where("mailing_id IN ?", filter.MailingIDs)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var attempts []models.MailingAttempt
	if err := query.Order("attempt_time DESC, id DESC").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// ListByMailingIDs 批量获取多个任务的发送尝试
func (r *GormMailingAttemptRepository) ListByMailingIDs(mailingIDs []uint) ([]models.MailingAttempt, error) {
	if len(mailingIDs) == 0 {
		return []models.MailingAttempt{}, nil
	}
	var attempts []models.MailingAttempt
	if err := r.db.Where("mailing_id IN ?", mailingIDs).
		Order("attempt_time DESC, id DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
