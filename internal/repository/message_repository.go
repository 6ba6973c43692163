package repository

import (
	"errors"

	"github.com/mailpulse/mailpulse/internal/models"

	"gorm.io/gorm"
)

// MessageRepository 信件模板数据访问接口
type MessageRepository interface {
	GetByID(scope OwnerScope, id uint) (*models.Message, error)
	Create(message *models.Message) error
	Update(message *models.Message) error
	Delete(id uint) error
	List(scope OwnerScope, filter MessageListFilter) ([]models.Message, int64, error)
}

// GormMessageRepository GORM 实现
type GormMessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建信件模板仓库
func NewMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// GetByID 根据 ID 获取信件模板
func (r *GormMessageRepository) GetByID(scope OwnerScope, id uint) (*models.Message, error) {
	var message models.Message
	if err := scope.Apply(r.db).First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// Create 创建信件模板
func (r *GormMessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// Update 更新信件模板
func (r *GormMessageRepository) Update(message *models.Message) error {
	return r.db.Save(message).Error
}

// Delete 删除信件模板
func (r *GormMessageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Message{}, id).Error
}

// List 信件模板列表
func (r *GormMessageRepository) List(scope OwnerScope, filter MessageListFilter) ([]models.Message, int64, error) {
	query := scope.Apply(r.db.Model(&models.Message{}))

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("subject LIKE ?", like)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var messages []models.Message
	if err := query.Order("id DESC").Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}
