package models

import "time"

// OrderItem 订单项（提交时的商品快照）
type OrderItem struct {
	ID             uint      `gorm:"primarykey" json:"id"`                    // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`          // 订单ID
	ProductID      *uint     `gorm:"index" json:"product_id"`                 // 商品ID（商品删除后保留快照）
	Title          string    `gorm:"type:varchar(255);not null" json:"title"` // 商品标题快照
	Slug           string    `gorm:"type:varchar(255)" json:"slug"`           // 商品 slug 快照
	ImageURL       string    `gorm:"type:varchar(500)" json:"image_url"`      // 商品图片快照
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`        // 单价
	Quantity       int       `gorm:"not null" json:"quantity"`                // 数量
	LineTotalCents int64     `gorm:"not null" json:"line_total_cents"`        // 行合计
	CreatedAt      time.Time `json:"created_at"`                              // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
