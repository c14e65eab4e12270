package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"
)

func TestCommitScenarioTotals(t *testing.T) {
	f := newCheckoutFixture(t, "commit_scenario")
	user := f.createUser(t, "buyer@example.com")
	product := f.createProduct(t, "product-a", 1000, 5)
	if _, err := f.cart.AddItem(user.ID, product.ID, 2); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	result, err := f.materializer.Commit(context.Background(), CommitInput{
		UserID:        user.ID,
		SessionID:     "cs_test_1",
		PaymentID:     "pi_test_1",
		ShippingCents: 500,
		ShippingName:  "Standard",
		Currency:      "cad",
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if result.AlreadyProcessed {
		t.Fatalf("first commit should not be already processed")
	}
	order := result.Order
	if order.SubtotalCents != 2000 || order.ShippingCents != 500 || order.TaxCents != 325 || order.TotalCents != 2825 {
		t.Fatalf("unexpected totals: %+v", order)
	}
	if order.Currency != "CAD" {
		t.Fatalf("currency should be upper case, got %s", order.Currency)
	}
	if len(order.OrderNo) != 26 {
		t.Fatalf("order no should be a ULID, got %q", order.OrderNo)
	}
	if len(order.Items) != 1 || order.Items[0].LineTotalCents != 2000 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if order.Items[0].ImageURL != "https://cdn.test/product-a.png" {
		t.Fatalf("image snapshot missing: %+v", order.Items[0])
	}

	var payment models.Payment
	if err := f.db.First(&payment, order.PaymentID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.AmountCents != 2825 || payment.ProviderPaymentID != "pi_test_1" || payment.Status != "succeeded" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.RawPayload["session_id"] != "cs_test_1" {
		t.Fatalf("raw payload should keep session id: %+v", payment.RawPayload)
	}
	if f.countRows(t, &models.CartItem{}) != 0 {
		t.Fatalf("cart should be cleared after commit")
	}

	sent := f.mailer.Sent()
	if len(sent) != 1 || sent[0].To != "buyer@example.com" {
		t.Fatalf("expected one confirmation email, got %+v", sent)
	}
	if !strings.Contains(sent[0].Body, "28.25") {
		t.Fatalf("confirmation should carry the total, got %q", sent[0].Body)
	}
}

func TestCommitIsIdempotentOnPaymentID(t *testing.T) {
	f := newCheckoutFixture(t, "commit_idempotent")
	user := f.createUser(t, "twice@example.com")
	product := f.createProduct(t, "product-b", 1500, 5)
	if _, err := f.cart.AddItem(user.ID, product.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	input := CommitInput{UserID: user.ID, SessionID: "cs_dup", PaymentID: "pi_dup", ShippingCents: 0}

	first, err := f.materializer.Commit(context.Background(), input)
	if err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	// 第二次提交前重新加购，已处理的支付不得再次消费购物车
	if _, err := f.cart.AddItem(user.ID, product.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	second, err := f.materializer.Commit(context.Background(), input)
	if err != nil {
		t.Fatalf("second commit failed: %v", err)
	}
	if !second.AlreadyProcessed || second.OrderID != first.OrderID || second.OrderNo != first.OrderNo {
		t.Fatalf("second commit should return the first order: first=%+v second=%+v", first, second)
	}
	if f.countRows(t, &models.Order{}) != 1 || f.countRows(t, &models.Payment{}) != 1 {
		t.Fatalf("expected exactly one order and one payment")
	}
	if f.countRows(t, &models.CartItem{}) != 1 {
		t.Fatalf("duplicate commit must not clear the new cart")
	}
	if len(f.mailer.Sent()) != 1 {
		t.Fatalf("duplicate commit must not send another confirmation")
	}
}

// stalePaymentRepo 第一次幂等查询返回空，模拟两个请求同时通过预检查
type stalePaymentRepo struct {
	repository.PaymentRepository
	stale int
}

func (r *stalePaymentRepo) GetByProviderPaymentID(provider, providerPaymentID string) (*models.Payment, error) {
	if r.stale > 0 {
		r.stale--
		return nil, nil
	}
	return r.PaymentRepository.GetByProviderPaymentID(provider, providerPaymentID)
}

func TestCommitResolvesUniqueViolationRace(t *testing.T) {
	f := newCheckoutFixture(t, "commit_race")
	user := f.createUser(t, "race@example.com")
	product := f.createProduct(t, "product-race", 700, 5)
	if _, err := f.cart.AddItem(user.ID, product.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	input := CommitInput{UserID: user.ID, SessionID: "cs_race", PaymentID: "pi_race"}
	winner, err := f.materializer.Commit(context.Background(), input)
	if err != nil {
		t.Fatalf("winner commit failed: %v", err)
	}
	if _, err := f.cart.AddItem(user.ID, product.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	f.materializer.paymentRepo = &stalePaymentRepo{PaymentRepository: f.paymentRepo, stale: 1}
	loser, err := f.materializer.Commit(context.Background(), input)
	if err != nil {
		t.Fatalf("racing commit should resolve to the winner: %v", err)
	}
	if !loser.AlreadyProcessed || loser.OrderID != winner.OrderID {
		t.Fatalf("unexpected race result: winner=%+v loser=%+v", winner, loser)
	}
	if f.countRows(t, &models.Order{}) != 1 || f.countRows(t, &models.Payment{}) != 1 || f.countRows(t, &models.OrderItem{}) != 1 {
		t.Fatalf("racing commit must roll back entirely")
	}
	if f.countRows(t, &models.CartItem{}) != 1 {
		t.Fatalf("rolled back commit must not clear the cart")
	}
}

func TestCommitUsesPriceAtCommitTime(t *testing.T) {
	f := newCheckoutFixture(t, "commit_price_drift")
	user := f.createUser(t, "drift@example.com")
	product := f.createProduct(t, "product-drift", 1000, 5)
	if _, err := f.cart.AddItem(user.ID, product.ID, 3); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	sale := int64(750)
	if err := f.db.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"sale_price_cents": sale,
		"is_on_sale":       true,
	}).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}

	result, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID, PaymentID: "pi_drift"})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	item := result.Order.Items[0]
	if item.UnitPriceCents != 750 || item.LineTotalCents != 2250 {
		t.Fatalf("line should use the sale price at commit time: %+v", item)
	}
	if result.Order.SubtotalCents != 2250 {
		t.Fatalf("unexpected subtotal: %d", result.Order.SubtotalCents)
	}
}

func TestCommitSkipsInactiveProducts(t *testing.T) {
	f := newCheckoutFixture(t, "commit_inactive")
	user := f.createUser(t, "inactive@example.com")
	kept := f.createProduct(t, "product-kept", 400, 5)
	dropped := f.createProduct(t, "product-dropped", 900, 5)
	for _, id := range []uint{kept.ID, dropped.ID} {
		if _, err := f.cart.AddItem(user.ID, id, 1); err != nil {
			t.Fatalf("add item failed: %v", err)
		}
	}
	if err := f.db.Model(&models.Product{}).Where("id = ?", dropped.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	result, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID, PaymentID: "pi_inactive"})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if len(result.Order.Items) != 1 || result.Order.SubtotalCents != 400 {
		t.Fatalf("inactive product should be excluded: %+v", result.Order)
	}
}

func TestCommitEmptyCartCreatesNothing(t *testing.T) {
	f := newCheckoutFixture(t, "commit_empty")
	user := f.createUser(t, "empty@example.com")

	_, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID, PaymentID: "pi_empty", ShippingCents: 500})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if f.countRows(t, &models.Order{}) != 0 || f.countRows(t, &models.Payment{}) != 0 || f.countRows(t, &models.OrderItem{}) != 0 {
		t.Fatalf("empty cart commit must not create rows")
	}
	if len(f.mailer.Sent()) != 0 {
		t.Fatalf("empty cart commit must not notify")
	}
}

func TestCommitRequiresPaymentID(t *testing.T) {
	f := newCheckoutFixture(t, "commit_no_payment")
	user := f.createUser(t, "nopay@example.com")
	if _, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID}); !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("expected ErrPaymentNotCompleted, got %v", err)
	}
}

func TestCommitSucceedsWhenNotificationFails(t *testing.T) {
	f := newCheckoutFixture(t, "commit_notify_fail")
	f.mailer.err = errors.New("smtp down")
	user := f.createUser(t, "mailfail@example.com")
	product := f.createProduct(t, "product-mail", 1000, 5)
	if _, err := f.cart.AddItem(user.ID, product.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID, PaymentID: "pi_mail"}); err != nil {
		t.Fatalf("commit should ignore notification failure: %v", err)
	}
	if f.countRows(t, &models.Order{}) != 1 {
		t.Fatalf("order should be committed")
	}
}

func TestCancelOrderCapturesSnapshot(t *testing.T) {
	f := newCheckoutFixture(t, "cancel_snapshot")
	user := f.createUser(t, "cancel@example.com")
	a := f.createProduct(t, "cancel-a", 1000, 5)
	b := f.createProduct(t, "cancel-b", 250, 5)
	if _, err := f.cart.AddItem(user.ID, a.ID, 2); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := f.cart.AddItem(user.ID, b.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	committed, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID, PaymentID: "pi_cancel"})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	before := committed.Order.Items

	result, err := f.orders.Cancel(context.Background(), user.ID, committed.OrderID, "en-US")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if len(result.Snapshot.Items) != len(before) {
		t.Fatalf("snapshot should keep all items: %+v", result.Snapshot.Items)
	}
	for i, item := range before {
		got := result.Snapshot.Items[i]
		if got.Title != item.Title || got.Quantity != item.Quantity || got.LineTotalCents != item.LineTotalCents {
			t.Fatalf("snapshot item %d mismatch: %+v vs %+v", i, got, item)
		}
	}
	if f.countRows(t, &models.Order{}) != 0 || f.countRows(t, &models.OrderItem{}) != 0 {
		t.Fatalf("order and items should be deleted")
	}
	sent := f.mailer.Sent()
	if len(sent) != 2 || !strings.Contains(sent[1].Body, "Product cancel-a") {
		t.Fatalf("cancellation email should list captured items: %+v", sent)
	}

	replay, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID, PaymentID: "pi_cancel"})
	if err != nil {
		t.Fatalf("replay commit failed: %v", err)
	}
	if !replay.AlreadyProcessed || replay.OrderID != 0 {
		t.Fatalf("consumed payment should not recreate the order: %+v", replay)
	}
}

func TestCancelForeignOrderNotFound(t *testing.T) {
	f := newCheckoutFixture(t, "cancel_foreign")
	owner := f.createUser(t, "owner@example.com")
	other := f.createUser(t, "other@example.com")
	product := f.createProduct(t, "foreign", 1000, 5)
	if _, err := f.cart.AddItem(owner.ID, product.ID, 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	committed, err := f.materializer.Commit(context.Background(), CommitInput{UserID: owner.ID, PaymentID: "pi_foreign"})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if _, err := f.orders.Cancel(context.Background(), other.ID, committed.OrderID, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := f.orders.Cancel(context.Background(), owner.ID, committed.OrderID+100, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for unknown id, got %v", err)
	}
	if f.countRows(t, &models.Order{}) != 1 {
		t.Fatalf("foreign cancel must not delete")
	}
}

func TestListOrdersSummaries(t *testing.T) {
	f := newCheckoutFixture(t, "list_orders")
	user := f.createUser(t, "list@example.com")
	product := f.createProduct(t, "list-a", 1200, 10)
	for _, pid := range []string{"pi_list_1", "pi_list_2"} {
		if _, err := f.cart.AddItem(user.ID, product.ID, 2); err != nil {
			t.Fatalf("add item failed: %v", err)
		}
		if _, err := f.materializer.Commit(context.Background(), CommitInput{UserID: user.ID, PaymentID: pid}); err != nil {
			t.Fatalf("commit failed: %v", err)
		}
	}
	result, err := f.orders.List(user.ID, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 2 || len(result.Items) != 2 {
		t.Fatalf("unexpected list result: %+v", result)
	}
	first := result.Items[0]
	if first.ItemCount != 2 || first.FirstItemName != "Product list-a" || first.PreviewImage == "" {
		t.Fatalf("unexpected summary: %+v", first)
	}
	if _, err := f.orders.Get(user.ID+1, first.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign get should be not found, got %v", err)
	}
}
