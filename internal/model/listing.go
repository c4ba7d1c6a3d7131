package model

import "time"

// ==================== 刊登相关投影 ====================

// Category 商品分类
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon"`
}

// ListingImage 刊登图片
type ListingImage struct {
	ID        string `json:"id"`
	Image     string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
	Order     int    `json:"order"`
}

// Listing 已发布的刊登（提交成功后服务端返回）
type Listing struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Price       float64        `json:"price,string"`
	ListingType string         `json:"listing_type"`
	Condition   string         `json:"condition"`
	Location    string         `json:"location"`
	Status      string         `json:"status"`
	Images      []ListingImage `json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SubscriptionInfo 订阅概要（随发布资格一起返回）
type SubscriptionInfo struct {
	PlanName          string `json:"plan_name"`
	RemainingListings int    `json:"remaining_listings"`
	CanCreate         bool   `json:"can_create"`
}

// PublishEligibility 发布资格（服务端推导，客户端只读）
// 向导挂载时拉取一次，不做自动失效；会话中途资格变化会读到旧值，
// 提交时仍以服务端的权威校验为准
type PublishEligibility struct {
	CanPublish       bool             `json:"can_publish"`
	Reason           string           `json:"reason"`
	Message          string           `json:"message"`
	HasSubscription  bool             `json:"has_subscription"`
	HasCredits       bool             `json:"has_credits"`
	CreditsBalance   int              `json:"credits_balance"`
	SubscriptionInfo SubscriptionInfo `json:"subscription_info"`
}
