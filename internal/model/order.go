package model

import "time"

// ==================== 订单状态常量 ====================

// 订单状态（服务端所有，客户端只读投影）
// 正常流转：pending -> confirmed/processing -> shipped -> delivered -> completed
// 终态分支：cancelled / refunded / disputed
const (
	OrderStatusPending    = "pending"    // 待确认
	OrderStatusConfirmed  = "confirmed"  // 已确认
	OrderStatusProcessing = "processing" // 备货中
	OrderStatusShipped    = "shipped"    // 已发货
	OrderStatusDelivered  = "delivered"  // 已送达
	OrderStatusCompleted  = "completed"  // 已完成
	OrderStatusCancelled  = "cancelled"  // 已取消
	OrderStatusRefunded   = "refunded"   // 已退款
	OrderStatusDisputed   = "disputed"   // 争议中
)

// 交付方式
const (
	DeliveryShipping = "shipping" // 快递寄送
	DeliveryLocal    = "local"    // 当面交付
)

// 视角角色：同一订单买卖双方看到的动作集不同
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// 订单动作（客户端只发起请求，状态流转由服务端裁决）
type OrderAction string

const (
	ActionShip           OrderAction = "ship"            // 卖家：标记发货
	ActionMarkDelivered  OrderAction = "mark_delivered"  // 卖家：确认当面交付
	ActionConfirmReceipt OrderAction = "confirm_receipt" // 买家：确认收货
	ActionLeaveReview    OrderAction = "leave_review"    // 买家：评价
)

// StatusLabels 状态展示文案（沿用线上法语文案）
var StatusLabels = map[string]string{
	OrderStatusPending:    "En attente",
	OrderStatusConfirmed:  "Confirmée",
	OrderStatusProcessing: "En préparation",
	OrderStatusShipped:    "Expédiée",
	OrderStatusDelivered:  "Livrée",
	OrderStatusCompleted:  "Terminée",
	OrderStatusCancelled:  "Annulée",
	OrderStatusRefunded:   "Remboursée",
	OrderStatusDisputed:   "Litige en cours",
}

// ==================== 订单投影 ====================

// ListingSnapshot 下单时的商品快照
type ListingSnapshot struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Price     string `json:"price"`
	Condition string `json:"condition"`
	Image     string `json:"image"`
}

// Order 订单（服务端所有数据的只读投影，本地不持久化）
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	StatusDisplay   string          `json:"status_display"`
	ListingTitle    string          `json:"listing_title"`
	ListingSnapshot ListingSnapshot `json:"listing_snapshot"`

	// 金额（服务端以字符串返回 decimal）
	ItemPrice    string `json:"item_price"`
	PlatformFee  string `json:"platform_fee"`
	SellerAmount string `json:"seller_amount"`

	// 对手方
	BuyerUsername  string `json:"buyer_username"`
	BuyerEmail     string `json:"buyer_email"`
	SellerUsername string `json:"seller_username"`
	SellerEmail    string `json:"seller_email"`

	// 物流
	DeliveryType   string `json:"delivery_type"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	TrackingURL    string `json:"tracking_url"`

	BuyerConfirmedReceipt bool `json:"buyer_confirmed_receipt"`

	// 时间线
	CreatedAt   time.Time  `json:"created_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ==================== 纯展示推导 ====================

// AllowedActions 按 状态 x 交付方式 x 角色 x 是否已确认收货 推导可用动作
// 仅是 UI 守卫，权威校验始终在服务端的动作接口里
func AllowedActions(status, deliveryType string, role Role, buyerConfirmedReceipt bool) []OrderAction {
	actions := make([]OrderAction, 0, 2)

	switch role {
	case RoleSeller:
		switch status {
		case OrderStatusPending, OrderStatusConfirmed:
			actions = append(actions, ActionShip)
		case OrderStatusShipped:
			// 当面交付没有物流轨迹，由卖家手动确认送达
			if deliveryType == DeliveryLocal {
				actions = append(actions, ActionMarkDelivered)
			}
		}

	case RoleBuyer:
		switch status {
		case OrderStatusShipped, OrderStatusDelivered:
			if !buyerConfirmedReceipt {
				actions = append(actions, ActionConfirmReceipt)
			}
		case OrderStatusCompleted:
			actions = append(actions, ActionLeaveReview)
		}
	}

	return actions
}

// StatusStep 状态 -> 进度序号 0~5
// cancelled/refunded/disputed 归零（不展示进度条）
func StatusStep(status string) int {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed:
		return 1
	case OrderStatusProcessing:
		return 2
	case OrderStatusShipped:
		return 3
	case OrderStatusDelivered:
		return 4
	case OrderStatusCompleted:
		return 5
	default:
		return 0
	}
}

// StatusProgress 进度条占比，按四个可见里程碑计算并封顶 1.0
func StatusProgress(status string) float64 {
	p := float64(StatusStep(status)) / 4
	if p > 1 {
		return 1
	}
	return p
}

// StatusLabel 状态文案，未知状态回退到 pending 文案（与线上一致）
func StatusLabel(status string) string {
	if label, ok := StatusLabels[status]; ok {
		return label
	}
	return StatusLabels[OrderStatusPending]
}
