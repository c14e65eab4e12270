package models

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`                    // 主键
	Title          string         `gorm:"type:varchar(255);not null" json:"title"` // 标题
	Slug           string         `gorm:"uniqueIndex;not null" json:"slug"`        // 唯一标识
	Description    string         `gorm:"type:text" json:"description"`            // 描述
	BrandID        *uint          `gorm:"index" json:"brand_id"`                   // 品牌ID
	CategoryID     *uint          `gorm:"index" json:"category_id"`                // 分类ID
	PriceCents     int64          `gorm:"not null;default:0" json:"price_cents"`   // 原价（分）
	SalePriceCents *int64         `json:"sale_price_cents"`                        // 促销价（分）
	SalePercent    int            `gorm:"not null;default:0" json:"sale_percent"`  // 折扣百分比（展示用）
	IsOnSale       bool           `gorm:"not null;index" json:"is_on_sale"`        // 是否促销中
	Stock          int            `gorm:"not null;default:0" json:"stock"`         // 库存
	IsActive       bool           `gorm:"not null;index" json:"is_active"`         // 是否上架
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                              // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间

	Brand    *Brand         `gorm:"foreignKey:BrandID" json:"brand,omitempty"`       // 品牌
	Category *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类
	Images   []ProductImage `gorm:"foreignKey:ProductID" json:"images"`              // 图片
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePriceCents 实际单价：促销中且设置了促销价时取促销价，否则取原价
func (p *Product) EffectivePriceCents() int64 {
	if p == nil {
		return 0
	}
	if p.IsOnSale && p.SalePriceCents != nil {
		return *p.SalePriceCents
	}
	return p.PriceCents
}

// PrimaryImageURL 主图地址：优先 is_primary，其次 position 最小的图片
func (p *Product) PrimaryImageURL() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	for _, image := range p.Images {
		if image.IsPrimary {
			return image.URL
		}
	}
	images := make([]ProductImage, len(p.Images))
	copy(images, p.Images)
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Position < images[j].Position
	})
	return images[0].URL
}

// BrandName 品牌名称
func (p *Product) BrandName() string {
	if p == nil || p.Brand == nil {
		return ""
	}
	return p.Brand.Name
}
