package models

import "time"

// AuthzAuditLog 后台角色变更审计
type AuthzAuditLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	OperatorUserID uint      `gorm:"index;not null" json:"operator_user_id"`
	TargetUserID   uint      `gorm:"index;not null" json:"target_user_id"`
	Action         string    `gorm:"type:varchar(64);index;not null" json:"action"`
	Roles          string    `gorm:"type:varchar(255);not null;default:''" json:"roles"`
	RequestID      string    `gorm:"type:varchar(64);not null;default:''" json:"request_id"`
	DetailJSON     JSON      `gorm:"type:json" json:"detail"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}
