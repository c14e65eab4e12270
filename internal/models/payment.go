package models

import "time"

// Payment 支付记录表（每个网关支付 ID 仅一条）
type Payment struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                              // 主键
	UserID            uint      `gorm:"index;not null" json:"user_id"`                                     // 用户ID
	Provider          string    `gorm:"type:varchar(20);not null" json:"provider"`                         // 支付提供方
	ProviderPaymentID string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"provider_payment_id"` // 网关支付 ID（幂等键）
	ProviderSessionID string    `gorm:"type:varchar(191);index" json:"provider_session_id"`                // 网关会话 ID
	Status            string    `gorm:"type:varchar(20);not null" json:"status"`                           // 支付状态
	AmountCents       int64     `gorm:"not null" json:"amount_cents"`                                      // 金额（分）
	Currency          string    `gorm:"type:varchar(10);not null" json:"currency"`                         // 币种
	RawPayload        JSON      `gorm:"type:json" json:"raw_payload,omitempty"`                            // 网关原始数据
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                           // 创建时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
