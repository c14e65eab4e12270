package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/queue"
	"github.com/mdsrtech/internal/repository"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// OrderMaterializer 将已确认的支付与当前购物车落地为订单（按网关支付 ID 幂等）
type OrderMaterializer struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	pricing     *PriceCalculator
	notifier    *NotificationService
	currency    string
	now         func() time.Time
}

// OrderMaterializerOptions 构造参数
type OrderMaterializerOptions struct {
	OrderRepo   repository.OrderRepository
	PaymentRepo repository.PaymentRepository
	CartRepo    repository.CartRepository
	UserRepo    repository.UserRepository
	Pricing     *PriceCalculator
	Notifier    *NotificationService
	Currency    string
}

// NewOrderMaterializer 创建订单落地服务
func NewOrderMaterializer(opts OrderMaterializerOptions) *OrderMaterializer {
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "CAD"
	}
	return &OrderMaterializer{
		orderRepo:   opts.OrderRepo,
		paymentRepo: opts.PaymentRepo,
		cartRepo:    opts.CartRepo,
		userRepo:    opts.UserRepo,
		pricing:     opts.Pricing,
		notifier:    opts.Notifier,
		currency:    currency,
		now:         time.Now,
	}
}

// CommitInput 落地订单输入
type CommitInput struct {
	UserID        uint
	SessionID     string
	PaymentID     string
	ShippingCents int64
	ShippingName  string
	Currency      string
	Locale        string
}

// CommitResult 落地结果
type CommitResult struct {
	OrderID          uint          `json:"order_id"`
	OrderNo          string        `json:"order_no"`
	AlreadyProcessed bool          `json:"already_processed"`
	Order            *models.Order `json:"-"`
}

var errDuplicatePayment = errors.New("duplicate provider payment id")

// Commit 幂等落地订单：同一网关支付 ID 只会生成一个订单
func (s *OrderMaterializer) Commit(ctx context.Context, input CommitInput) (*CommitResult, error) {
	paymentID := strings.TrimSpace(input.PaymentID)
	if paymentID == "" {
		return nil, ErrPaymentNotCompleted
	}
	if input.ShippingCents < 0 {
		return nil, fmt.Errorf("%w: shipping=%d", ErrIntegrity, input.ShippingCents)
	}

	if result, err := s.lookupProcessed(paymentID); err != nil || result != nil {
		return result, err
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.currency
	}

	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cartItems, err := cartRepo.ListByUser(input.UserID)
		if err != nil {
			return err
		}
		priced, err := priceCartItems(cartItems)
		if err != nil {
			return err
		}
		if len(priced.Lines) == 0 {
			return ErrEmptyCart
		}
		totals, err := s.pricing.Totals(priced.SubtotalCents, input.ShippingCents)
		if err != nil {
			return err
		}

		payment := &models.Payment{
			UserID:            input.UserID,
			Provider:          constants.PaymentProviderStripe,
			ProviderPaymentID: paymentID,
			ProviderSessionID: input.SessionID,
			Status:            constants.PaymentStatusSucceeded,
			AmountCents:       totals.TotalCents,
			Currency:          currency,
			RawPayload:        models.JSON{"session_id": input.SessionID},
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			if repository.IsUniqueViolation(err) {
				return errDuplicatePayment
			}
			return err
		}

		placedAt := s.now()
		created := &models.Order{
			OrderNo:       ulid.Make().String(),
			UserID:        input.UserID,
			PaymentID:     payment.ID,
			SubtotalCents: totals.SubtotalCents,
			ShippingCents: totals.ShippingCents,
			TaxCents:      totals.TaxCents,
			TotalCents:    totals.TotalCents,
			Currency:      currency,
			ShippingName:  input.ShippingName,
			PlacedAt:      placedAt,
		}
		items := make([]models.OrderItem, 0, len(priced.Lines))
		for _, line := range priced.Lines {
			productID := line.ProductID
			items = append(items, models.OrderItem{
				ProductID:      &productID,
				Title:          line.Title,
				Slug:           line.Slug,
				ImageURL:       line.ImageURL,
				UnitPriceCents: line.UnitPriceCents,
				Quantity:       line.Quantity,
				LineTotalCents: line.LineTotalCents,
			})
		}
		if err := s.orderRepo.WithTx(tx).Create(created, items); err != nil {
			return err
		}
		if err := cartRepo.ClearByUser(input.UserID); err != nil {
			return err
		}
		created.Payment = payment
		order = created
		return nil
	})
	if errors.Is(err, errDuplicatePayment) {
		result, lookupErr := s.lookupProcessed(paymentID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if result == nil {
			return nil, fmt.Errorf("%w: payment %s not readable after conflict", ErrIntegrity, paymentID)
		}
		logger.Infow("order_commit_race_resolved", "payment_id", paymentID, "order_id", result.OrderID)
		return result, nil
	}
	if err != nil {
		if errors.Is(err, ErrIntegrity) {
			logger.Errorw("order_commit_integrity_failed", "user_id", input.UserID, "payment_id", paymentID, "error", err)
		} else if !errors.Is(err, ErrEmptyCart) {
			logger.Errorw("order_commit_failed", "user_id", input.UserID, "payment_id", paymentID, "error", err)
		}
		return nil, err
	}

	logger.Infow("order_committed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"total_cents", order.TotalCents,
		"payment_id", paymentID,
	)

	s.notifier.Send(ctx, queue.NotificationPayload{
		Kind:          constants.NotifyKindOrderConfirmation,
		Recipient:     user.Email,
		RecipientName: user.FullName,
		Locale:        input.Locale,
		Order:         buildOrderSnapshot(order, order.Items),
	})

	return &CommitResult{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Order:   order,
	}, nil
}

// lookupProcessed 幂等键查询：已存在支付记录时返回其订单
func (s *OrderMaterializer) lookupProcessed(paymentID string) (*CommitResult, error) {
	payment, err := s.paymentRepo.GetByProviderPaymentID(constants.PaymentProviderStripe, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, nil
	}
	order, err := s.orderRepo.GetByPaymentID(payment.ID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		// 订单已被取消，支付记录保留，不再重新落地
		logger.Infow("order_commit_payment_consumed", "payment_id", paymentID, "payment_record_id", payment.ID)
		return &CommitResult{AlreadyProcessed: true}, nil
	}
	return &CommitResult{
		OrderID:          order.ID,
		OrderNo:          order.OrderNo,
		AlreadyProcessed: true,
		Order:            order,
	}, nil
}
