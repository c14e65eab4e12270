package models

import (
	"strings"

	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认管理员账号；已存在管理员时返回首个管理员
func InitDefaultAdmin(email, password string) (*User, error) {
	var existing User
	err := DB.Where("role = ?", constants.UserRoleAdmin).Order("id asc").Limit(1).Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing.ID != 0 {
		return &existing, nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@mdsrtech.local"
	}
	defaultPassword := password == ""
	if defaultPassword {
		password = "admin12345"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := User{
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: string(hash),
		Role:         constants.UserRoleAdmin,
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return nil, err
	}

	if defaultPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
		logger.Warnw("default_admin_password_change_required", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return &admin, nil
}
