package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"vyzio_web_v1_202608/internal/model"
)

// ==================== 错误定义 ====================

var (
	ErrOrderActionInFlight = errors.New("该订单有操作正在进行中")
	ErrActionNotAllowed    = errors.New("当前订单状态不允许该操作")
)

// ==================== 依赖接口 ====================

// OrderAPI 订单视图依赖的市场接口
type OrderAPI interface {
	MySales(ctx context.Context, sess *model.UserSession) ([]model.Order, error)
	MyPurchases(ctx context.Context, sess *model.UserSession) ([]model.Order, error)
	Ship(ctx context.Context, sess *model.UserSession, orderID string, trackingNumber, carrier string) error
	MarkDelivered(ctx context.Context, sess *model.UserSession, orderID string) error
	ConfirmReceipt(ctx context.Context, sess *model.UserSession, orderID string) error
	WalletMe(ctx context.Context, sess *model.UserSession) (*model.Wallet, error)
	WalletTransactions(ctx context.Context, sess *model.UserSession) ([]model.WalletTransaction, error)
}

// ==================== 类型定义 ====================

// OrderView 订单展示投影：原始订单 + 按角色推导出的动作和进度
type OrderView struct {
	model.Order
	Actions  []model.OrderAction `json:"allowed_actions"`
	Step     int                 `json:"status_step"`
	Progress float64             `json:"status_progress"`
	Label    string              `json:"status_label"`
}

// OrderFilter 列表筛选（纯本地过滤，不打接口）
type OrderFilter struct {
	Status  string
	Keyword string
}

// SellerBoard 卖家订单页：订单列表 + 钱包
type SellerBoard struct {
	Orders []OrderView   `json:"orders"`
	Wallet *model.Wallet `json:"wallet"`
}

// ==================== OrderService ====================

// OrderService 订单生命周期服务
// 订单状态完全以服务端为准：每次操作成功后重新拉整个列表，
// 本地不推演状态迁移
type OrderService struct {
	api OrderAPI

	// 每单同时只允许一个在途操作
	inflightMu sync.Mutex
	inflight   map[string]bool
}

// NewOrderService 创建订单服务
func NewOrderService(api OrderAPI) *OrderService {
	return &OrderService{
		api:      api,
		inflight: make(map[string]bool),
	}
}

// ==================== 列表视图 ====================

// Sales 卖家视角订单列表（带钱包）
// 订单和钱包并发拉取；钱包拉不到不影响订单列表展示
func (s *OrderService) Sales(ctx context.Context, sess *model.UserSession, filter OrderFilter) (*SellerBoard, error) {
	var (
		wg     sync.WaitGroup
		orders []model.Order
		wallet *model.Wallet
		err    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		orders, err = s.api.MySales(ctx, sess)
	}()
	go func() {
		defer wg.Done()
		w, werr := s.api.WalletMe(ctx, sess)
		if werr != nil {
			log.Printf("[Order] 钱包拉取失败: %v", werr)
			return
		}
		wallet = w
	}()
	wg.Wait()

	if err != nil {
		return nil, err
	}
	views := decorate(applyFilter(orders, filter), model.RoleSeller)
	return &SellerBoard{Orders: views, Wallet: wallet}, nil
}

// Purchases 买家视角订单列表
func (s *OrderService) Purchases(ctx context.Context, sess *model.UserSession, filter OrderFilter) ([]OrderView, error) {
	orders, err := s.api.MyPurchases(ctx, sess)
	if err != nil {
		return nil, err
	}
	return decorate(applyFilter(orders, filter), model.RoleBuyer), nil
}

// ==================== 卖家操作 ====================

// Ship 发货，成功后重拉卖家列表和钱包
func (s *OrderService) Ship(ctx context.Context, sess *model.UserSession, orderID string, trackingNumber, carrier string) (*SellerBoard, error) {
	return s.sellerMutate(ctx, sess, orderID, model.ActionShip, func() error {
		return s.api.Ship(ctx, sess, orderID, trackingNumber, carrier)
	})
}

// MarkDelivered 本地交付订单标记已送达，成功后重拉卖家列表和钱包
func (s *OrderService) MarkDelivered(ctx context.Context, sess *model.UserSession, orderID string) (*SellerBoard, error) {
	return s.sellerMutate(ctx, sess, orderID, model.ActionMarkDelivered, func() error {
		return s.api.MarkDelivered(ctx, sess, orderID)
	})
}

// ==================== 买家操作 ====================

// ConfirmReceipt 确认收货，成功后重拉买家列表
func (s *OrderService) ConfirmReceipt(ctx context.Context, sess *model.UserSession, orderID string) ([]OrderView, error) {
	release, err := s.acquire(orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := s.api.MyPurchases(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !actionAllowed(orders, orderID, model.RoleBuyer, model.ActionConfirmReceipt) {
		return nil, ErrActionNotAllowed
	}

	if err := s.api.ConfirmReceipt(ctx, sess, orderID); err != nil {
		return nil, err
	}
	refreshed, err := s.api.MyPurchases(ctx, sess)
	if err != nil {
		return nil, err
	}
	return decorate(refreshed, model.RoleBuyer), nil
}

// ==================== 钱包 ====================

// Wallet 钱包余额
func (s *OrderService) Wallet(ctx context.Context, sess *model.UserSession) (*model.Wallet, error) {
	return s.api.WalletMe(ctx, sess)
}

// WalletTransactions 钱包流水
func (s *OrderService) WalletTransactions(ctx context.Context, sess *model.UserSession) ([]model.WalletTransaction, error) {
	return s.api.WalletTransactions(ctx, sess)
}

// ==================== 内部方法 ====================

// sellerMutate 卖家侧先改后拉的统一流程：
// 占号 -> 以最新列表校验动作可行 -> 执行 -> 重拉列表和钱包
func (s *OrderService) sellerMutate(ctx context.Context, sess *model.UserSession, orderID string, action model.OrderAction, mutate func() error) (*SellerBoard, error) {
	release, err := s.acquire(orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := s.api.MySales(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !actionAllowed(orders, orderID, model.RoleSeller, action) {
		return nil, ErrActionNotAllowed
	}

	if err := mutate(); err != nil {
		return nil, err
	}
	return s.Sales(ctx, sess, OrderFilter{})
}

// acquire 占住订单的操作名额，返回释放函数
func (s *OrderService) acquire(orderID string) (func(), error) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if s.inflight[orderID] {
		return nil, ErrOrderActionInFlight
	}
	s.inflight[orderID] = true
	return func() {
		s.inflightMu.Lock()
		delete(s.inflight, orderID)
		s.inflightMu.Unlock()
	}, nil
}

// actionAllowed 按最新订单数据判断动作是否可做
func actionAllowed(orders []model.Order, orderID string, role model.Role, action model.OrderAction) bool {
	for i := range orders {
		o := &orders[i]
		if o.ID != orderID {
			continue
		}
		for _, a := range model.AllowedActions(o.Status, o.DeliveryType, role, o.BuyerConfirmedReceipt) {
			if a == action {
				return true
			}
		}
		return false
	}
	return false
}

// decorate 给订单挂上动作、进度和状态文案
func decorate(orders []model.Order, role model.Role) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		o := orders[i]
		views = append(views, OrderView{
			Order:    o,
			Actions:  model.AllowedActions(o.Status, o.DeliveryType, role, o.BuyerConfirmedReceipt),
			Step:     model.StatusStep(o.Status),
			Progress: model.StatusProgress(o.Status),
			Label:    model.StatusLabel(o.Status),
		})
	}
	return views
}

// applyFilter 本地筛选：状态精确匹配，关键词匹配单号/商品标题/对方用户名
func applyFilter(orders []model.Order, filter OrderFilter) []model.Order {
	if filter.Status == "" && filter.Keyword == "" {
		return orders
	}
	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if keyword != "" && !matchKeyword(&o, keyword) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchKeyword(o *model.Order, keyword string) bool {
	if strings.Contains(strings.ToLower(o.OrderNumber), keyword) {
		return true
	}
	if strings.Contains(strings.ToLower(o.ListingSnapshot.Title), keyword) {
		return true
	}
	if strings.Contains(strings.ToLower(o.BuyerUsername), keyword) {
		return true
	}
	return strings.Contains(strings.ToLower(o.SellerUsername), keyword)
}
