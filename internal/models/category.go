package models

import "time"

// Category 分类表
type Category struct {
	ID          uint      `gorm:"primarykey" json:"id"`                   // 主键
	Name        string    `gorm:"type:varchar(120);not null" json:"name"` // 名称
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`       // 唯一标识
	SalePercent int       `gorm:"not null;default:0" json:"sale_percent"` // 分类整体折扣百分比（展示用）
	SortOrder   int       `gorm:"default:0;index" json:"sort_order"`      // 排序权重
	CreatedAt   time.Time `json:"created_at"`                             // 创建时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
