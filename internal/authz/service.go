package authz

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiPrefix       = "/api"
	casbinTableName = "casbin_rule"
	userPrefix      = "user:"
	rolePrefix      = "role:"
	// 所有角色挂在锚点下，用于区分“已定义角色”与任意字符串
	roleAnchor = "role:__anchor__"
)

var (
	// ErrUnknownRole 角色未定义
	ErrUnknownRole = errors.New("unknown role")
	errUnavailable = errors.New("authz service unavailable")
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service 后台 RBAC：主体为 user:<id>，资源为去掉 /api 前缀的路由模板
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 基于 gorm 适配器创建授权服务，策略持久化到 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}
	return nil
}

// EnforceUser 判定用户对路由的访问权限
func (s *Service) EnforceUser(userID uint, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForUser(userID), NormalizeObject(obj), NormalizeAction(act))
}

func (s *Service) roleExists(role string) (bool, error) {
	ok, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
	if err != nil {
		return false, fmt.Errorf("check role failed: %w", err)
	}
	return ok, nil
}

// defineRole 登记角色，已存在时忽略
func (s *Service) defineRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if normalized == roleAnchor {
		return "", fmt.Errorf("reserved role is not allowed")
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", normalized, roleAnchor); err != nil {
		return "", fmt.Errorf("create role failed: %w", err)
	}
	return normalized, nil
}

// ListRoles 已定义的角色，按名称排序
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 0 && strings.HasPrefix(rule[0], rolePrefix) {
			roles = append(roles, rule[0])
		}
	}
	slices.Sort(roles)
	return slices.Compact(roles), nil
}

// GrantRolePolicy 为角色授予 (资源, 动作)，角色不存在时自动登记
func (s *Service) GrantRolePolicy(role, object, action string) error {
	if err := s.ready(); err != nil {
		return err
	}
	normalizedRole, err := s.defineRole(role)
	if err != nil {
		return err
	}
	act := NormalizeAction(action)
	if act == "" {
		return fmt.Errorf("action is required")
	}
	if _, err := s.enforcer.AddPolicy(normalizedRole, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// SetUserRoles 整体替换用户角色；任一角色未定义时不做任何修改
func (s *Service) SetUserRoles(userID uint, roles []string) ([]string, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user id is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		name, err := NormalizeRole(role)
		if err != nil {
			return nil, err
		}
		ok, err := s.roleExists(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRole, name)
		}
		normalized = append(normalized, name)
	}
	slices.Sort(normalized)
	normalized = slices.Compact(normalized)

	subject := SubjectForUser(userID)
	if _, err := s.enforcer.DeleteRolesForUser(subject); err != nil {
		return nil, fmt.Errorf("clear user roles failed: %w", err)
	}
	if len(normalized) > 0 {
		if _, err := s.enforcer.AddRolesForUser(subject, normalized); err != nil {
			return nil, fmt.Errorf("assign user roles failed: %w", err)
		}
	}
	return normalized, nil
}

// GrantUserRole 追加单个角色
func (s *Service) GrantUserRole(userID uint, role string) error {
	if userID == 0 {
		return fmt.Errorf("user id is required")
	}
	if err := s.ready(); err != nil {
		return err
	}
	normalized, err := s.defineRole(role)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddRoleForUser(SubjectForUser(userID), normalized); err != nil {
		return fmt.Errorf("assign user role failed: %w", err)
	}
	return nil
}

// GetUserRoles 用户直接拥有的角色
func (s *Service) GetUserRoles(userID uint) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("get user roles failed: %w", err)
	}
	roles = slices.DeleteFunc(roles, func(role string) bool {
		return !strings.HasPrefix(role, rolePrefix) || role == roleAnchor
	})
	slices.Sort(roles)
	return roles, nil
}

// GetUserPolicies 用户经角色继承后的全部策略
func (s *Service) GetUserPolicies(userID uint) ([]Policy, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetImplicitPermissionsForUser(SubjectForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("get user policies failed: %w", err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	slices.SortFunc(policies, func(a, b Policy) int {
		return cmp.Or(
			cmp.Compare(a.Subject, b.Subject),
			cmp.Compare(a.Object, b.Object),
			cmp.Compare(a.Action, b.Action),
		)
	})
	return slices.Compact(policies), nil
}

// SubjectForUser 用户主体标识
func SubjectForUser(userID uint) string {
	return userPrefix + strconv.FormatUint(uint64(userID), 10)
}

// NormalizeRole 统一为 role:<name>，空格替换为下划线
func NormalizeRole(role string) (string, error) {
	name := strings.ReplaceAll(strings.TrimSpace(role), " ", "_")
	name = strings.TrimPrefix(name, rolePrefix)
	if name == "" {
		return "", fmt.Errorf("role is required")
	}
	return rolePrefix + name, nil
}

// NormalizeObject 资源路径去掉 /api 前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiPrefix {
		return "/"
	}
	if rest, ok := strings.CutPrefix(normalized, apiPrefix+"/"); ok {
		return "/" + rest
	}
	return normalized
}

// NormalizeAction HTTP 方法统一为大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
