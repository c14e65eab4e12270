package service

import (
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"
)

// WishlistService 心愿单
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService 创建心愿单服务
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

// ListIDs 心愿单商品 ID
func (s *WishlistService) ListIDs(userID uint) ([]uint, error) {
	ids, err := s.wishlistRepo.ListProductIDs(userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}

// List 心愿单商品（仅上架）
func (s *WishlistService) List(userID uint) ([]models.Product, error) {
	items, err := s.wishlistRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(items))
	for _, item := range items {
		if item.Product != nil && item.Product.IsActive {
			products = append(products, *item.Product)
		}
	}
	return products, nil
}

// Toggle 切换心愿单状态，返回切换后是否在心愿单中
func (s *WishlistService) Toggle(userID, productID uint) (bool, error) {
	product, err := s.productRepo.GetByID(productID, false)
	if err != nil {
		return false, err
	}
	if product == nil {
		return false, ErrProductNotFound
	}
	exists, err := s.wishlistRepo.Exists(userID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.wishlistRepo.Remove(userID, productID)
	}
	return true, s.wishlistRepo.Add(userID, productID)
}
