package models

import "time"

// Order 订单表（提交后不可变，仅允许整单取消删除）
type Order struct {
	ID            uint      `gorm:"primarykey" json:"id"`                      // 主键
	OrderNo       string    `gorm:"uniqueIndex;not null" json:"order_no"`      // 订单编号
	UserID        uint      `gorm:"index;not null" json:"user_id"`             // 用户ID
	PaymentID     uint      `gorm:"uniqueIndex;not null" json:"payment_id"`    // 支付记录ID
	SubtotalCents int64     `gorm:"not null" json:"subtotal_cents"`            // 商品小计
	ShippingCents int64     `gorm:"not null" json:"shipping_cents"`            // 运费
	TaxCents      int64     `gorm:"not null" json:"tax_cents"`                 // 税费
	TotalCents    int64     `gorm:"not null" json:"total_cents"`               // 合计
	Currency      string    `gorm:"type:varchar(10);not null" json:"currency"` // 币种
	ShippingName  string    `gorm:"type:varchar(120)" json:"shipping_name"`    // 配送方式
	PlacedAt      time.Time `gorm:"index;not null" json:"placed_at"`           // 下单时间
	CreatedAt     time.Time `json:"created_at"`                                // 创建时间

	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`     // 订单项
	Payment *Payment    `gorm:"foreignKey:PaymentID" json:"payment,omitempty"` // 支付记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
