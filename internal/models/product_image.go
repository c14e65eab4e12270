package models

// ProductImage 商品图片表
type ProductImage struct {
	ID        uint   `gorm:"primarykey" json:"id"`                   // 主键
	ProductID uint   `gorm:"index;not null" json:"product_id"`       // 商品ID
	URL       string `gorm:"type:varchar(500);not null" json:"url"`  // 图片地址
	Alt       string `gorm:"type:varchar(255)" json:"alt,omitempty"` // 替代文本
	IsPrimary bool   `gorm:"not null" json:"is_primary"`             // 是否主图
	Position  int    `gorm:"not null;default:0" json:"position"`     // 排序
}

// TableName 指定表名
func (ProductImage) TableName() string {
	return "product_images"
}
