package models

import "time"

// Brand 品牌表
type Brand struct {
	ID        uint      `gorm:"primarykey" json:"id"`                        // 主键
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`      // 名称
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`            // 唯一标识
	LogoURL   string    `gorm:"type:varchar(500)" json:"logo_url,omitempty"` // Logo 地址
	CreatedAt time.Time `json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (Brand) TableName() string {
	return "brands"
}
