package service

import (
	"strings"

	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"

	"gorm.io/gorm"
)

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	currency    string
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, currency string) *CartService {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "CAD"
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		currency:    currency,
	}
}

// CartSummary 购物车汇总
type CartSummary struct {
	Items         []PricedLine  `json:"items"`
	ItemsRemoved  []RemovedLine `json:"items_removed"`
	SubtotalCents int64         `json:"subtotal_cents"`
	ItemCount     int           `json:"item_count"`
	Currency      string        `json:"currency"`
}

// AddItem 加入购物车，同一商品合并数量
func (s *CartService) AddItem(userID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	var saved *models.CartItem
	err := s.cartRepo.Transaction(func(tx *gorm.DB) error {
		product, err := s.productRepo.WithTx(tx).GetByID(productID, false)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return ErrProductUnavailable
		}
		cartRepo := s.cartRepo.WithTx(tx)
		existing, err := cartRepo.GetByUserAndProduct(userID, productID)
		if err != nil {
			return err
		}
		merged := quantity
		if existing != nil {
			merged += existing.Quantity
		}
		if product.Stock < merged {
			return ErrProductUnavailable
		}
		item := &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  merged,
		}
		if err := cartRepo.Upsert(item); err != nil {
			return err
		}
		item.Product = product
		saved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateQuantity 修改数量，数量为 0 时删除该行
func (s *CartService) UpdateQuantity(userID, itemID uint, quantity int) (*models.CartItem, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	var updated *models.CartItem
	err := s.cartRepo.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		item, err := cartRepo.GetByID(userID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrCartItemNotFound
		}
		if quantity == 0 {
			_, err := cartRepo.Delete(userID, itemID)
			return err
		}
		product, err := s.productRepo.WithTx(tx).GetByID(item.ProductID, false)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive || product.Stock < quantity {
			return ErrProductUnavailable
		}
		if err := cartRepo.UpdateQuantity(item.ID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		item.Product = product
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, itemID uint) error {
	return s.cartRepo.Transaction(func(tx *gorm.DB) error {
		rows, err := s.cartRepo.WithTx(tx).Delete(userID, itemID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrCartItemNotFound
		}
		return nil
	})
}

// CurrentTotal 按当前有效价格汇总购物车，下架商品单独列出
func (s *CartService) CurrentTotal(userID uint) (*CartSummary, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	priced, err := priceCartItems(items)
	if err != nil {
		return nil, err
	}
	return &CartSummary{
		Items:         priced.Lines,
		ItemsRemoved:  priced.Removed,
		SubtotalCents: priced.SubtotalCents,
		ItemCount:     priced.ItemCount,
		Currency:      s.currency,
	}, nil
}

// Count 购物车商品总件数
func (s *CartService) Count(userID uint) (int64, error) {
	return s.cartRepo.CountQuantity(userID)
}
