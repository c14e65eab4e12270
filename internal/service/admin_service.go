package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mdsrtech/internal/authz"
	"github.com/mdsrtech/internal/cache"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"

	"gorm.io/gorm"
)

// AdminService 后台商品维护与角色分配
type AdminService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuthzAuditLogRepository
	authz       *authz.Service
	catalog     *CatalogService
}

// NewAdminService 创建后台服务
func NewAdminService(productRepo repository.ProductRepository, userRepo repository.UserRepository, auditRepo repository.AuthzAuditLogRepository, authzService *authz.Service, catalog *CatalogService) *AdminService {
	return &AdminService{
		productRepo: productRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		authz:       authzService,
		catalog:     catalog,
	}
}

// AdminProductImageInput 商品图片
type AdminProductImageInput struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"is_primary"`
}

// AdminProductInput 商品新增/更新参数
type AdminProductInput struct {
	Title          string                   `json:"title"`
	Slug           string                   `json:"slug"`
	Description    string                   `json:"description"`
	BrandID        *uint                    `json:"brand_id"`
	CategoryID     *uint                    `json:"category_id"`
	PriceCents     int64                    `json:"price_cents"`
	SalePriceCents *int64                   `json:"sale_price_cents"`
	SalePercent    int                      `json:"sale_percent"`
	IsOnSale       bool                     `json:"is_on_sale"`
	Stock          int                      `json:"stock"`
	IsActive       bool                     `json:"is_active"`
	Images         []AdminProductImageInput `json:"images"`
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidProduct)
	}
	if normalizeSlug(in.Slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidProduct)
	}
	if in.PriceCents < 0 || in.Stock < 0 {
		return fmt.Errorf("%w: price and stock must not be negative", ErrInvalidProduct)
	}
	if in.SalePriceCents != nil && (*in.SalePriceCents < 0 || *in.SalePriceCents > in.PriceCents) {
		return fmt.Errorf("%w: sale price out of range", ErrInvalidProduct)
	}
	if in.SalePercent < 0 || in.SalePercent > 100 {
		return fmt.Errorf("%w: sale percent out of range", ErrInvalidProduct)
	}
	for _, image := range in.Images {
		if strings.TrimSpace(image.URL) == "" {
			return fmt.Errorf("%w: image url is required", ErrInvalidProduct)
		}
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func (in AdminProductInput) apply(product *models.Product) {
	product.Title = strings.TrimSpace(in.Title)
	product.Slug = normalizeSlug(in.Slug)
	product.Description = in.Description
	product.BrandID = in.BrandID
	product.CategoryID = in.CategoryID
	product.PriceCents = in.PriceCents
	product.SalePriceCents = in.SalePriceCents
	product.SalePercent = in.SalePercent
	product.IsOnSale = in.IsOnSale
	product.Stock = in.Stock
	product.IsActive = in.IsActive
}

func (in AdminProductInput) images() []models.ProductImage {
	images := make([]models.ProductImage, 0, len(in.Images))
	hasPrimary := false
	for i, image := range in.Images {
		primary := image.IsPrimary && !hasPrimary
		hasPrimary = hasPrimary || primary
		images = append(images, models.ProductImage{
			URL:       strings.TrimSpace(image.URL),
			Alt:       strings.TrimSpace(image.Alt),
			IsPrimary: primary,
			Position:  i,
		})
	}
	if !hasPrimary && len(images) > 0 {
		images[0].IsPrimary = true
	}
	return images
}

// CreateProduct 新增商品
func (s *AdminService) CreateProduct(ctx context.Context, input AdminProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product := &models.Product{}
	input.apply(product)
	err := s.productRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		if err := repo.Create(product); err != nil {
			return err
		}
		return repo.ReplaceImages(product.ID, input.images())
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}
	s.catalog.InvalidateCache(ctx)
	logger.Infow("admin_product_created", "product_id", product.ID, "slug", product.Slug)
	return s.productRepo.GetByID(product.ID, false)
}

// UpdateProduct 更新商品；Images 为 nil 时保留原图片
func (s *AdminService) UpdateProduct(ctx context.Context, productID uint, input AdminProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(productID, false)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	input.apply(product)
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		if err := repo.Update(product); err != nil {
			return err
		}
		if input.Images == nil {
			return nil
		}
		return repo.ReplaceImages(product.ID, input.images())
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}
	s.catalog.InvalidateCache(ctx)
	logger.Infow("admin_product_updated", "product_id", product.ID, "price_cents", product.PriceCents, "is_active", product.IsActive)
	return s.productRepo.GetByID(product.ID, false)
}

// AssignRolesInput 角色分配参数
type AssignRolesInput struct {
	OperatorUserID uint
	TargetUserID   uint
	Roles          []string
	RequestID      string
}

// AssignRoles 覆盖设置用户后台角色；包含 admin 时同步提升用户角色，反之降级
func (s *AdminService) AssignRoles(ctx context.Context, input AssignRolesInput) ([]string, error) {
	user, err := s.userRepo.GetByID(input.TargetUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	roles, err := s.authz.SetUserRoles(user.ID, input.Roles)
	if err != nil {
		if errors.Is(err, authz.ErrUnknownRole) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRole, err)
		}
		return nil, err
	}

	wantRole := constants.UserRoleCustomer
	adminRole, _ := authz.NormalizeRole(authz.RoleAdmin)
	for _, role := range roles {
		if role == adminRole {
			wantRole = constants.UserRoleAdmin
			break
		}
	}
	if user.Role != wantRole {
		user.Role = wantRole
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
	}
	if err := cache.DelUserAuthState(ctx, user.ID); err != nil {
		logger.Warnw("admin_assign_roles_cache_clear_failed", "user_id", user.ID, "error", err)
	}

	if err := s.auditRepo.Create(&models.AuthzAuditLog{
		OperatorUserID: input.OperatorUserID,
		TargetUserID:   user.ID,
		Action:         constants.AuthzAuditActionAssignRoles,
		Roles:          strings.Join(roles, ","),
		RequestID:      input.RequestID,
		DetailJSON:     models.JSON{"user_role": user.Role},
	}); err != nil {
		logger.Warnw("admin_assign_roles_audit_failed", "user_id", user.ID, "error", err)
	}
	logger.Infow("admin_roles_assigned", "operator_user_id", input.OperatorUserID, "user_id", user.ID, "roles", roles)
	return roles, nil
}

// GetUserRoles 查询用户后台角色
func (s *AdminService) GetUserRoles(userID uint) ([]string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.authz.GetUserRoles(userID)
}

// ListRoles 列出可分配角色
func (s *AdminService) ListRoles() ([]string, error) {
	return s.authz.ListRoles()
}

// ListAuditLogs 角色变更审计列表
func (s *AdminService) ListAuditLogs(filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	return s.auditRepo.List(filter)
}

// BootstrapAuthz 初始化预置角色，并为 role=admin 的用户授予 role:admin
func BootstrapAuthz(authzService *authz.Service, userRepo repository.UserRepository) error {
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		return err
	}
	ids, err := userRepo.ListIDsByRole(constants.UserRoleAdmin)
	if err != nil {
		return err
	}
	if err := authzService.BootstrapAdminUsers(ids); err != nil {
		return err
	}
	logger.Infow("authz_bootstrapped", "admin_users", len(ids))
	return nil
}
