package service

import (
	"fmt"
	"strings"

	"github.com/mdsrtech/internal/models"

	"github.com/shopspring/decimal"
)

// OrderTotals 订单金额（分）
type OrderTotals struct {
	SubtotalCents int64
	ShippingCents int64
	TaxCents      int64
	TotalCents    int64
}

// PriceCalculator 税费计算
type PriceCalculator struct {
	taxRate decimal.Decimal
}

// NewPriceCalculator 解析十进制税率字符串，例如 "0.13"
func NewPriceCalculator(rate string) (*PriceCalculator, error) {
	raw := strings.TrimSpace(rate)
	if raw == "" {
		raw = "0"
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate %q: %w", rate, err)
	}
	if parsed.IsNegative() {
		return nil, fmt.Errorf("invalid tax rate %q: negative", rate)
	}
	return &PriceCalculator{taxRate: parsed}, nil
}

// TaxRate 当前税率
func (p *PriceCalculator) TaxRate() decimal.Decimal {
	return p.taxRate
}

// ComputeTax tax = floor((subtotal + shipping) × rate)
func (p *PriceCalculator) ComputeTax(subtotalCents, shippingCents int64) int64 {
	base := decimal.NewFromInt(subtotalCents + shippingCents)
	return base.Mul(p.taxRate).Floor().IntPart()
}

// Totals 计算订单合计；任何负数金额视为完整性错误
func (p *PriceCalculator) Totals(subtotalCents, shippingCents int64) (OrderTotals, error) {
	if subtotalCents < 0 || shippingCents < 0 {
		return OrderTotals{}, fmt.Errorf("%w: subtotal=%d shipping=%d", ErrIntegrity, subtotalCents, shippingCents)
	}
	tax := p.ComputeTax(subtotalCents, shippingCents)
	total := subtotalCents + shippingCents + tax
	if tax < 0 || total < 0 {
		return OrderTotals{}, fmt.Errorf("%w: total=%d", ErrIntegrity, total)
	}
	return OrderTotals{
		SubtotalCents: subtotalCents,
		ShippingCents: shippingCents,
		TaxCents:      tax,
		TotalCents:    total,
	}, nil
}

// PricedLine 按当前价格计算的购物车行
type PricedLine struct {
	ItemID         uint   `json:"id"`
	ProductID      uint   `json:"product_id"`
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	BrandName      string `json:"brand_name"`
	ImageURL       string `json:"image_url"`
	PriceCents     int64  `json:"price_cents"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	IsOnSale       bool   `json:"is_on_sale"`
	Quantity       int    `json:"quantity"`
	Stock          int    `json:"stock"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// RemovedLine 因商品下架或删除被排除的购物车行
type RemovedLine struct {
	ItemID    uint   `json:"id"`
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
}

// PricedCart 购物车计价结果
type PricedCart struct {
	Lines         []PricedLine
	Removed       []RemovedLine
	SubtotalCents int64
	ItemCount     int
}

// priceCartItems 以当前有效价格计价，跳过缺失或下架商品
func priceCartItems(items []models.CartItem) (*PricedCart, error) {
	priced := &PricedCart{
		Lines:   make([]PricedLine, 0, len(items)),
		Removed: make([]RemovedLine, 0),
	}
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 || !product.IsActive {
			removed := RemovedLine{ItemID: item.ID, ProductID: item.ProductID}
			if product != nil {
				removed.Title = product.Title
			}
			priced.Removed = append(priced.Removed, removed)
			continue
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: cart item %d quantity %d", ErrIntegrity, item.ID, item.Quantity)
		}
		unit := product.EffectivePriceCents()
		if unit < 0 {
			return nil, fmt.Errorf("%w: product %d effective price %d", ErrIntegrity, product.ID, unit)
		}
		lineTotal := unit * int64(item.Quantity)
		priced.Lines = append(priced.Lines, PricedLine{
			ItemID:         item.ID,
			ProductID:      product.ID,
			Title:          product.Title,
			Slug:           product.Slug,
			BrandName:      product.BrandName(),
			ImageURL:       product.PrimaryImageURL(),
			PriceCents:     product.PriceCents,
			UnitPriceCents: unit,
			IsOnSale:       product.IsOnSale && product.SalePriceCents != nil,
			Quantity:       item.Quantity,
			Stock:          product.Stock,
			LineTotalCents: lineTotal,
		})
		priced.SubtotalCents += lineTotal
		priced.ItemCount += item.Quantity
	}
	return priced, nil
}

// FormatCents 将分格式化为两位小数金额
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
