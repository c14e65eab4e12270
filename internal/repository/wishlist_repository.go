package repository

import (
	"github.com/mdsrtech/internal/models"

	"gorm.io/gorm"
)

// WishlistRepository 收藏夹数据访问接口
type WishlistRepository interface {
	ListProductIDs(userID uint) ([]uint, error)
	ListByUser(userID uint) ([]models.WishlistItem, error)
	Exists(userID, productID uint) (bool, error)
	Add(userID, productID uint) error
	Remove(userID, productID uint) error
}

// GormWishlistRepository GORM 实现
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository 创建收藏夹仓库
func NewWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// ListProductIDs 获取收藏的商品 ID
func (r *GormWishlistRepository) ListProductIDs(userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	if err := r.db.Model(&models.WishlistItem{}).Where("user_id = ?", userID).Order("created_at DESC").Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByUser 获取收藏条目（含商品）
func (r *GormWishlistRepository) ListByUser(userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.
		Preload("Product").
		Preload("Product.Brand").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, position ASC, id ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Exists 是否已收藏
func (r *GormWishlistRepository) Exists(userID, productID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.WishlistItem{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add 加入收藏（重复加入视为成功）
func (r *GormWishlistRepository) Add(userID, productID uint) error {
	err := r.db.Create(&models.WishlistItem{UserID: userID, ProductID: productID}).Error
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

// Remove 取消收藏
func (r *GormWishlistRepository) Remove(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{}).Error
}
