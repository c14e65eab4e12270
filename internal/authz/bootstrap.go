package authz

import "fmt"

// 预置角色名
const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
	RoleCatalog = "catalog"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: RoleAdmin,
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
		{
			Role: RoleSupport,
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/payments", Action: "GET"},
				{Object: "/admin/login-logs", Action: "GET"},
			},
		},
		{
			Role: RoleCatalog,
			Policies: []Policy{
				{Object: "/admin/products", Action: "POST"},
				{Object: "/admin/products/:id", Action: "PUT"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色与策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.defineRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddRoleForUser(role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}

// BootstrapAdminUsers 为 role=admin 的用户授予 role:admin
func (s *Service) BootstrapAdminUsers(userIDs []uint) error {
	for _, id := range userIDs {
		if err := s.GrantUserRole(id, RoleAdmin); err != nil {
			return fmt.Errorf("grant admin role to user %d failed: %w", id, err)
		}
	}
	return nil
}
