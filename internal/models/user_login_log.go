package models

import "time"

// UserLoginLog 登录日志，记录密码登录与第三方登录的结果
type UserLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID     uint      `gorm:"index" json:"user_id"`                          // 用户ID（失败时可为0）
	Email      string    `gorm:"index;not null" json:"email"`                   // 登录邮箱
	Status     string    `gorm:"type:varchar(16);index;not null" json:"status"` // success/failed
	FailReason string    `gorm:"type:varchar(32)" json:"fail_reason"`           // 失败原因
	Source     string    `gorm:"type:varchar(16);index" json:"source"`          // password/google/github
	ClientIP   string    `gorm:"type:varchar(64)" json:"client_ip"`             // 客户端IP
	RequestID  string    `gorm:"type:varchar(64)" json:"request_id"`            // 请求ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                       // 记录时间
}

// TableName 指定表名
func (UserLoginLog) TableName() string {
	return "user_login_logs"
}
