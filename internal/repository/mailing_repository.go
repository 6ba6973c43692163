package repository

import (
	"errors"
	"time"

	"github.com/mailpulse/mailpulse/internal/models"

	"gorm.io/gorm"
)

// MailingRepository 邮件任务数据访问接口
type MailingRepository interface {
	GetByID(scope OwnerScope, id uint) (*models.Mailing, error)
	Create(mailing *models.Mailing) error
	Update(mailing *models.Mailing) error
	UpdateStatus(id uint, status models.MailingStatus) error
	ReplaceRecipients(mailing *models.Mailing, recipients []models.Recipient) error
	Delete(id uint) error
	List(scope OwnerScope, filter MailingListFilter) ([]models.Mailing, int64, error)
	ListIDs(scope OwnerScope) ([]uint, error)
}

// GormMailingRepository GORM 实现
type GormMailingRepository struct {
	db *gorm.DB
}

// NewMailingRepository 创建邮件任务仓库
func NewMailingRepository(db *gorm.DB) *GormMailingRepository {
	return &GormMailingRepository{db: db}
}

// GetByID 根据 ID 获取邮件任务，预加载信件与收件人
func (r *GormMailingRepository) GetByID(scope OwnerScope, id uint) (*models.Mailing, error) {
	var mailing models.Mailing
	if err := scope.Apply(r.db).
		Preload("Message").
		Preload("Recipients").
		First(&mailing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mailing, nil
}

// Create 创建邮件任务
// Recipients 字段非空时由 GORM 同步写入关联表。
func (r *GormMailingRepository) Create(mailing *models.Mailing) error {
	return r.db.Create(mailing).Error
}

// Update 更新邮件任务基础字段
// 关联收件人的变更走 ReplaceRecipients，避免 Save 触发的隐式全量写入。
func (r *GormMailingRepository) Update(mailing *models.Mailing) error {
	return r.db.Omit("Recipients", "Message").Save(mailing).Error
}

// UpdateStatus 更新邮件任务状态
func (r *GormMailingRepository) UpdateStatus(id uint, status models.MailingStatus) error {
	return r.db.Model(&models.Mailing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// ReplaceRecipients 全量替换任务的收件人关联
func (r *GormMailingRepository) ReplaceRecipients(mailing *models.Mailing, recipients []models.Recipient) error {
	return r.db.Model(mailing).Association("Recipients").Replace(recipients)
}

// Delete 删除邮件任务
func (r *GormMailingRepository) Delete(id uint) error {
	return r.db.Delete(&models.Mailing{}, id).Error
}

// ListIDs 返回范围内全部任务 ID
func (r *GormMailingRepository) ListIDs(scope OwnerScope) ([]uint, error) {
	var ids []uint
	if err := scope.Apply(r.db.Model(&models.Mailing{})).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// List 邮件任务列表
func (r *GormMailingRepository) List(scope OwnerScope, filter MailingListFilter) ([]models.Mailing, int64, error) {
	query := scope.Apply(r.db.Model(&models.Mailing{}))

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.StartFrom != nil {
		query = query.Where("start_time >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		query = query.Where("start_time <= ?", *filter.StartTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var mailings []models.Mailing
	if err := query.Preload("Message").Order("id DESC").Find(&mailings).Error; err != nil {
		return nil, 0, err
	}
	return mailings, total, nil
}
