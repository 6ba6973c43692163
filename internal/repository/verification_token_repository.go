package repository

import (
	"errors"

	"github.com/mailpulse/mailpulse/internal/models"

	"gorm.io/gorm"
)

// VerificationTokenRepository 验证令牌数据访问接口
type VerificationTokenRepository interface {
	Create(token *models.VerificationToken) error
	GetByToken(token string) (*models.VerificationToken, error)
	GetLatestByUser(userID uint) (*models.VerificationToken, error)
	Delete(id uint) error
}

// GormVerificationTokenRepository GORM 实现
type GormVerificationTokenRepository struct {
	db *gorm.DB
}

// NewVerificationTokenRepository 创建验证令牌仓库
func NewVerificationTokenRepository(db *gorm.DB) *GormVerificationTokenRepository {
	return &GormVerificationTokenRepository{db: db}
}

// Create 创建令牌记录
func (r *GormVerificationTokenRepository) Create(token *models.VerificationToken) error {
	return r.db.Create(token).Error
}

// GetByToken 根据令牌值获取记录
func (r *GormVerificationTokenRepository) GetByToken(token string) (*models.VerificationToken, error) {
	var record models.VerificationToken
	if err := r.db.Preload("User").Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetLatestByUser 获取账号最新的令牌记录
func (r *GormVerificationTokenRepository) GetLatestByUser(userID uint) (*models.VerificationToken, error) {
	var record models.VerificationToken
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Delete 删除令牌记录
// 仅在验证成功后调用，过期令牌保留在表中。
func (r *GormVerificationTokenRepository) Delete(id uint) error {
	return r.db.Delete(&models.VerificationToken{}, id).Error
}
