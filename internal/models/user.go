package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                                              // 主键
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`                                                 // 邮箱（小写）
	FullName           string         `gorm:"type:varchar(120);not null;default:''" json:"full_name"`                            // 姓名
	PasswordHash       string         `gorm:"type:varchar(200)" json:"-"`                                                        // 密码哈希（OAuth 账号可为空）
	Role               string         `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`                          // 角色 customer/admin
	IsActive           bool           `gorm:"not null" json:"is_active"`                                                         // 是否启用
	OAuthProvider      string         `gorm:"column:oauth_provider;type:varchar(20);index:idx_user_oauth" json:"oauth_provider"` // 第三方登录来源
	OAuthID            string         `gorm:"column:oauth_id;type:varchar(191);index:idx_user_oauth" json:"-"`                   // 第三方用户 ID
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                                                       // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                                                                    // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time     `json:"last_login_at"`                                                                     // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                                           // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                                                        // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// HasPassword 是否设置了本地密码
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
