package repository

import (
	"errors"

	"github.com/mdsrtech/internal/models"

	"gorm.io/gorm"
)

// PasswordResetRepository 密码重置令牌数据访问接口
type PasswordResetRepository interface {
	Create(token *models.PasswordResetToken) error
	GetByToken(token string) (*models.PasswordResetToken, error)
	InvalidateOpenByUser(userID uint) error
	MarkUsed(id uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPasswordResetRepository
}

// GormPasswordResetRepository GORM 实现
type GormPasswordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository 创建密码重置仓库
func NewPasswordResetRepository(db *gorm.DB) *GormPasswordResetRepository {
	return &GormPasswordResetRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPasswordResetRepository) WithTx(tx *gorm.DB) *GormPasswordResetRepository {
	if tx == nil {
		return r
	}
	return &GormPasswordResetRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPasswordResetRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建令牌
func (r *GormPasswordResetRepository) Create(token *models.PasswordResetToken) error {
	return r.db.Create(token).Error
}

// GetByToken 查询未使用的令牌（含用户）
func (r *GormPasswordResetRepository) GetByToken(token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := r.db.Preload("User").Where("token = ? AND used = ?", token, false).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// InvalidateOpenByUser 作废用户所有未使用的令牌
func (r *GormPasswordResetRepository) InvalidateOpenByUser(userID uint) error {
	return r.db.Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error
}

// MarkUsed 标记令牌已使用
func (r *GormPasswordResetRepository) MarkUsed(id uint) error {
	return r.db.Model(&models.PasswordResetToken{}).Where("id = ?", id).Update("used", true).Error
}
