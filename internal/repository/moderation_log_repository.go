package repository

import (
	"github.com/mailpulse/mailpulse/internal/models"

	"gorm.io/gorm"
)

// ModerationLogRepository 运营操作日志数据访问接口
type ModerationLogRepository interface {
	Create(log *models.ModerationLog) error
	List(filter ModerationLogListFilter) ([]models.ModerationLog, int64, error)
}

// GormModerationLogRepository GORM 实现
type GormModerationLogRepository struct {
	db *gorm.DB
}

// NewModerationLogRepository 创建运营操作日志仓库
func NewModerationLogRepository(db *gorm.DB) *GormModerationLogRepository {
	return &GormModerationLogRepository{db: db}
}

// Create 创建操作日志
func (r *GormModerationLogRepository) Create(log *models.ModerationLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// List 查询操作日志
func (r *GormModerationLogRepository) List(filter ModerationLogListFilter) ([]models.ModerationLog, int64, error) {
	query := r.db.Model(&models.ModerationLog{})
	if filter.ActorID != 0 {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetID != 0 {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.ModerationLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
