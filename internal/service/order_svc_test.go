package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vyzio_web_v1_202608/internal/model"
)

// ==================== Mock 实现 ====================

type mockOrderAPI struct {
	mu    sync.Mutex
	sales []model.Order
	buys  []model.Order

	shipCalls    int
	confirmCalls int

	shipFn           func(orderID, trackingNumber, carrier string) error
	markDeliveredFn  func(orderID string) error
	confirmReceiptFn func(orderID string) error
}

func (m *mockOrderAPI) MySales(ctx context.Context, sess *model.UserSession) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Order, len(m.sales))
	copy(out, m.sales)
	return out, nil
}

func (m *mockOrderAPI) MyPurchases(ctx context.Context, sess *model.UserSession) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Order, len(m.buys))
	copy(out, m.buys)
	return out, nil
}

func (m *mockOrderAPI) Ship(ctx context.Context, sess *model.UserSession, orderID string, trackingNumber, carrier string) error {
	m.mu.Lock()
	m.shipCalls++
	m.mu.Unlock()
	if m.shipFn != nil {
		return m.shipFn(orderID, trackingNumber, carrier)
	}
	// 服务端把状态推进到 shipped
	m.setStatus(orderID, model.OrderStatusShipped)
	return nil
}

func (m *mockOrderAPI) MarkDelivered(ctx context.Context, sess *model.UserSession, orderID string) error {
	if m.markDeliveredFn != nil {
		return m.markDeliveredFn(orderID)
	}
	m.setStatus(orderID, model.OrderStatusDelivered)
	return nil
}

func (m *mockOrderAPI) ConfirmReceipt(ctx context.Context, sess *model.UserSession, orderID string) error {
	m.mu.Lock()
	m.confirmCalls++
	m.mu.Unlock()
	if m.confirmReceiptFn != nil {
		return m.confirmReceiptFn(orderID)
	}
	m.setStatus(orderID, model.OrderStatusCompleted)
	return nil
}

func (m *mockOrderAPI) WalletMe(ctx context.Context, sess *model.UserSession) (*model.Wallet, error) {
	return &model.Wallet{Balance: "120.00", PendingBalance: "30.00"}, nil
}

func (m *mockOrderAPI) WalletTransactions(ctx context.Context, sess *model.UserSession) ([]model.WalletTransaction, error) {
	return []model.WalletTransaction{{ID: "t1", Type: "sale_credit", Amount: "30.00"}}, nil
}

func (m *mockOrderAPI) setStatus(orderID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sales {
		if m.sales[i].ID == orderID {
			m.sales[i].Status = status
		}
	}
	for i := range m.buys {
		if m.buys[i].ID == orderID {
			m.buys[i].Status = status
		}
	}
}

func sellerOrder(id, status, delivery string) model.Order {
	return model.Order{
		ID:           id,
		OrderNumber:  "VYZ-" + id,
		Status:       status,
		DeliveryType: delivery,
		ListingSnapshot: model.ListingSnapshot{
			Title: "Vélo vintage " + id,
		},
		BuyerUsername:  "bob",
		SellerUsername: "alice",
	}
}

// ==================== 列表视图 ====================

func TestSalesDecoratesOrders(t *testing.T) {
	api := &mockOrderAPI{sales: []model.Order{
		sellerOrder("1", model.OrderStatusPending, model.DeliveryShipping),
		sellerOrder("2", model.OrderStatusShipped, model.DeliveryLocal),
		sellerOrder("3", model.OrderStatusCancelled, model.DeliveryShipping),
	}}
	svc := NewOrderService(api)

	board, err := svc.Sales(context.Background(), testSession(), OrderFilter{})
	if err != nil {
		t.Fatalf("列表拉取失败: %v", err)
	}
	if len(board.Orders) != 3 {
		t.Fatalf("订单数量不符: %d", len(board.Orders))
	}
	if board.Wallet == nil || board.Wallet.Balance != "120.00" {
		t.Fatalf("钱包未附带: %v", board.Wallet)
	}

	byID := map[string]OrderView{}
	for _, v := range board.Orders {
		byID[v.ID] = v
	}
	if len(byID["1"].Actions) != 1 || byID["1"].Actions[0] != model.ActionShip {
		t.Fatalf("待确认订单应可发货: %v", byID["1"].Actions)
	}
	if len(byID["2"].Actions) != 1 || byID["2"].Actions[0] != model.ActionMarkDelivered {
		t.Fatalf("当面交付已发货订单应可标记送达: %v", byID["2"].Actions)
	}
	if byID["3"].Step != 0 || byID["3"].Progress != 0 {
		t.Fatalf("取消订单进度应归零: step=%d progress=%v", byID["3"].Step, byID["3"].Progress)
	}
	if byID["2"].Progress != 0.75 {
		t.Fatalf("已发货进度应为 0.75: %v", byID["2"].Progress)
	}
}

func TestOrderFilterLocal(t *testing.T) {
	api := &mockOrderAPI{buys: []model.Order{
		sellerOrder("1", model.OrderStatusPending, model.DeliveryShipping),
		sellerOrder("2", model.OrderStatusShipped, model.DeliveryShipping),
	}}
	svc := NewOrderService(api)

	views, err := svc.Purchases(context.Background(), testSession(), OrderFilter{Status: model.OrderStatusShipped})
	if err != nil {
		t.Fatalf("列表拉取失败: %v", err)
	}
	if len(views) != 1 || views[0].ID != "2" {
		t.Fatalf("状态筛选不符: %v", views)
	}

	views, _ = svc.Purchases(context.Background(), testSession(), OrderFilter{Keyword: "VYZ-1"})
	if len(views) != 1 || views[0].ID != "1" {
		t.Fatalf("单号筛选不符: %v", views)
	}

	// 关键词大小写不敏感，可命中商品标题
	views, _ = svc.Purchases(context.Background(), testSession(), OrderFilter{Keyword: "vélo vintage 2"})
	if len(views) != 1 || views[0].ID != "2" {
		t.Fatalf("标题筛选不符: %v", views)
	}
}

// ==================== 先改后拉 ====================

func TestShipReloadsFromServer(t *testing.T) {
	api := &mockOrderAPI{sales: []model.Order{
		sellerOrder("1", model.OrderStatusPending, model.DeliveryShipping),
	}}
	svc := NewOrderService(api)

	board, err := svc.Ship(context.Background(), testSession(), "1", "TRK123", "colissimo")
	if err != nil {
		t.Fatalf("发货失败: %v", err)
	}
	// 返回的是服务端重拉后的状态，不是本地推演
	if board.Orders[0].Status != model.OrderStatusShipped {
		t.Fatalf("发货后状态应为 shipped: %s", board.Orders[0].Status)
	}
	if len(board.Orders[0].Actions) != 0 {
		t.Fatalf("快递发货后卖家不应再有动作: %v", board.Orders[0].Actions)
	}
}

func TestShipRejectedWhenNotAllowed(t *testing.T) {
	api := &mockOrderAPI{sales: []model.Order{
		sellerOrder("1", model.OrderStatusCompleted, model.DeliveryShipping),
	}}
	svc := NewOrderService(api)

	if _, err := svc.Ship(context.Background(), testSession(), "1", "", ""); !errors.Is(err, ErrActionNotAllowed) {
		t.Fatalf("已完成订单发货应被拒, 实际 %v", err)
	}
	if api.shipCalls != 0 {
		t.Fatalf("被拒时不应调用上游, 调用了 %d 次", api.shipCalls)
	}
}

func TestMarkDeliveredOnlyForLocal(t *testing.T) {
	api := &mockOrderAPI{sales: []model.Order{
		sellerOrder("1", model.OrderStatusShipped, model.DeliveryShipping),
		sellerOrder("2", model.OrderStatusShipped, model.DeliveryLocal),
	}}
	svc := NewOrderService(api)

	// 快递订单没有手动送达
	if _, err := svc.MarkDelivered(context.Background(), testSession(), "1"); !errors.Is(err, ErrActionNotAllowed) {
		t.Fatalf("快递订单标记送达应被拒, 实际 %v", err)
	}

	board, err := svc.MarkDelivered(context.Background(), testSession(), "2")
	if err != nil {
		t.Fatalf("当面交付标记送达失败: %v", err)
	}
	for _, v := range board.Orders {
		if v.ID == "2" && v.Status != model.OrderStatusDelivered {
			t.Fatalf("标记后状态应为 delivered: %s", v.Status)
		}
	}
}

func TestConfirmReceiptFlow(t *testing.T) {
	api := &mockOrderAPI{buys: []model.Order{
		sellerOrder("1", model.OrderStatusDelivered, model.DeliveryShipping),
	}}
	svc := NewOrderService(api)

	views, err := svc.ConfirmReceipt(context.Background(), testSession(), "1")
	if err != nil {
		t.Fatalf("确认收货失败: %v", err)
	}
	if views[0].Status != model.OrderStatusCompleted {
		t.Fatalf("确认后状态应为 completed: %s", views[0].Status)
	}
	// 完成后买家可评价
	if len(views[0].Actions) != 1 || views[0].Actions[0] != model.ActionLeaveReview {
		t.Fatalf("完成订单应可评价: %v", views[0].Actions)
	}
}

func TestConfirmReceiptRejectedWhenAlreadyConfirmed(t *testing.T) {
	order := sellerOrder("1", model.OrderStatusDelivered, model.DeliveryShipping)
	order.BuyerConfirmedReceipt = true
	api := &mockOrderAPI{buys: []model.Order{order}}
	svc := NewOrderService(api)

	if _, err := svc.ConfirmReceipt(context.Background(), testSession(), "1"); !errors.Is(err, ErrActionNotAllowed) {
		t.Fatalf("已确认过的订单应被拒, 实际 %v", err)
	}
	if api.confirmCalls != 0 {
		t.Fatal("被拒时不应调用上游")
	}
}

// ==================== 并发防抖 ====================

func TestOrderActionInFlightGuard(t *testing.T) {
	blocked := make(chan struct{})
	proceed := make(chan struct{})
	api := &mockOrderAPI{sales: []model.Order{
		sellerOrder("1", model.OrderStatusPending, model.DeliveryShipping),
	}}
	api.shipFn = func(orderID, trackingNumber, carrier string) error {
		close(blocked)
		<-proceed
		return nil
	}
	svc := NewOrderService(api)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ship(context.Background(), testSession(), "1", "", "")
		done <- err
	}()

	<-blocked
	// 第一个请求卡在上游时，第二个必须立刻被拒
	if _, err := svc.Ship(context.Background(), testSession(), "1", "", ""); !errors.Is(err, ErrOrderActionInFlight) {
		t.Fatalf("并发操作应被拒, 实际 %v", err)
	}

	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("首个请求不应失败: %v", err)
	}

	// 完成后名额释放，新操作不再被挡（状态校验另算）
	if _, err := svc.Ship(context.Background(), testSession(), "1", "", ""); errors.Is(err, ErrOrderActionInFlight) {
		t.Fatal("名额释放后不应再报在途冲突")
	}
}
