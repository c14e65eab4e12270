package models

import "time"

// PasswordResetToken 密码重置令牌
type PasswordResetToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null;index" json:"used"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// Expired 判断是否过期
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return t == nil || !now.Before(t.ExpiresAt)
}
