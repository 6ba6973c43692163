package repository

import (
	"errors"

	"github.com/mailpulse/mailpulse/internal/models"

	"gorm.io/gorm"
)

// RecipientRepository 收件人数据访问接口
type RecipientRepository interface {
	GetByID(scope OwnerScope, id uint) (*models.Recipient, error)
	GetByEmail(email string) (*models.Recipient, error)
	ListByIDs(scope OwnerScope, ids []uint) ([]models.Recipient, error)
	Create(recipient *models.Recipient) error
	Update(recipient *models.Recipient) error
	Delete(id uint) error
	List(scope OwnerScope, filter RecipientListFilter) ([]models.Recipient, int64, error)
}

// GormRecipientRepository GORM 实现
type GormRecipientRepository struct {
	db *gorm.DB
}

// NewRecipientRepository 创建收件人仓库
func NewRecipientRepository(db *gorm.DB) *GormRecipientRepository {
	return &GormRecipientRepository{db: db}
}

// GetByID 根据 ID 获取收件人
func (r *GormRecipientRepository) GetByID(scope OwnerScope, id uint) (*models.Recipient, error) {
	var recipient models.Recipient
	if err := scope.Apply(r.db).First(&recipient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipient, nil
}

// GetByEmail 根据邮箱获取收件人
// 邮箱在全表唯一，查重不受归属范围限制。
func (r *GormRecipientRepository) GetByEmail(email string) (*models.Recipient, error) {
	var recipient models.Recipient
	if err := r.db.Where("email = ?", email).First(&recipient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipient, nil
}

// ListByIDs 批量获取收件人
func (r *GormRecipientRepository) ListByIDs(scope OwnerScope, ids []uint) ([]models.Recipient, error) {
	if len(ids) == 0 {
		return []models.Recipient{}, nil
	}
	var recipients []models.Recipient
	if err := scope.Apply(r.db).Where("id IN ?", ids).Find(&recipients).Error; err != nil {
		return nil, err
	}
	return recipients, nil
}

// Create 创建收件人
func (r *GormRecipientRepository) Create(recipient *models.Recipient) error {
	return r.db.Create(recipient).Error
}

// Update 更新收件人
func (r *GormRecipientRepository) Update(recipient *models.Recipient) error {
	return r.db.Save(recipient).Error
}

// Delete 删除收件人
func (r *GormRecipientRepository) Delete(id uint) error {
	return r.db.Delete(&models.Recipient{}, id).Error
}

// List 收件人列表
func (r *GormRecipientRepository) List(scope OwnerScope, filter RecipientListFilter) ([]models.Recipient, int64, error) {
	query := scope.Apply(r.db.Model(&models.Recipient{}))

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("email LIKE ? OR last_name LIKE ? OR first_name LIKE ?", like, like, like)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var recipients []models.Recipient
	if err := query.Order("id DESC").Find(&recipients).Error; err != nil {
		return nil, 0, err
	}
	return recipients, total, nil
}
