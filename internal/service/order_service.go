package service

import (
	"context"
	"errors"
	"time"

	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/queue"
	"github.com/mdsrtech/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单查询与取消
type OrderService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	notifier    *NotificationService
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, userRepo repository.UserRepository, notifier *NotificationService) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// OrderSummary 订单列表项
type OrderSummary struct {
	ID            uint      `json:"id"`
	OrderNo       string    `json:"order_no"`
	SubtotalCents int64     `json:"subtotal_cents"`
	ShippingCents int64     `json:"shipping_cents"`
	TaxCents      int64     `json:"tax_cents"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	ShippingName  string    `json:"shipping_name"`
	PlacedAt      time.Time `json:"placed_at"`
	ItemCount     int       `json:"item_count"`
	PreviewImage  string    `json:"preview_image"`
	FirstItemName string    `json:"first_item_name"`
}

// OrderListResult 分页结果
type OrderListResult struct {
	Items    []OrderSummary `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// CancelResult 取消结果（含删除前的快照）
type CancelResult struct {
	OrderID  uint                 `json:"order_id"`
	OrderNo  string               `json:"order_no"`
	Snapshot *queue.OrderSnapshot `json:"snapshot"`
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func summarizeOrder(order models.Order) OrderSummary {
	summary := OrderSummary{
		ID:            order.ID,
		OrderNo:       order.OrderNo,
		SubtotalCents: order.SubtotalCents,
		ShippingCents: order.ShippingCents,
		TaxCents:      order.TaxCents,
		TotalCents:    order.TotalCents,
		Currency:      order.Currency,
		ShippingName:  order.ShippingName,
		PlacedAt:      order.PlacedAt,
	}
	for _, item := range order.Items {
		summary.ItemCount += item.Quantity
	}
	if len(order.Items) > 0 {
		summary.PreviewImage = order.Items[0].ImageURL
		summary.FirstItemName = order.Items[0].Title
	}
	return summary
}

// List 用户订单列表，最新在前
func (s *OrderService) List(userID uint, page, pageSize int) (*OrderListResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	orders, total, err := s.orderRepo.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
	})
	if err != nil {
		return nil, err
	}
	items := make([]OrderSummary, 0, len(orders))
	for _, order := range orders {
		items = append(items, summarizeOrder(order))
	}
	return &OrderListResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get 获取用户自己的订单详情
func (s *OrderService) Get(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Cancel 取消订单：事务内先复制快照再删除订单与订单项，提交后发送取消通知
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint, locale string) (*CancelResult, error) {
	var snapshot *queue.OrderSnapshot
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDAndUser(orderID, userID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		snapshot = buildOrderSnapshot(order, order.Items)
		if err := orderRepo.DeleteWithItems(order.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_cancelled", "order_id", snapshot.OrderID, "order_no", snapshot.OrderNo, "user_id", userID)

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		logger.Warnw("order_cancel_notify_user_lookup_failed", "user_id", userID, "error", err)
	} else if user != nil {
		s.notifier.Send(ctx, queue.NotificationPayload{
			Kind:          constants.NotifyKindOrderCancelled,
			Recipient:     user.Email,
			RecipientName: user.FullName,
			Locale:        locale,
			Order:         snapshot,
		})
	}

	return &CancelResult{OrderID: snapshot.OrderID, OrderNo: snapshot.OrderNo, Snapshot: snapshot}, nil
}

// ListAdmin 后台订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	return s.orderRepo.ListAdmin(filter)
}

// ListPayments 后台支付记录列表
func (s *OrderService) ListPayments(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	return s.paymentRepo.ListAdmin(filter)
}
