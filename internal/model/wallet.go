package model

import "time"

// ==================== 钱包投影 ====================

// Wallet 卖家钱包（服务端所有，随卖家订单页一起展示的只读投影）
type Wallet struct {
	Balance        string `json:"balance"`         // 可用余额
	PendingBalance string `json:"pending_balance"` // 待释放（买家确认收货后入账）
	TotalEarned    string `json:"total_earned"`    // 累计入账
	TotalWithdrawn string `json:"total_withdrawn"` // 累计提现
}

// WalletTransaction 钱包流水
type WalletTransaction struct {
	ID           string    `json:"id"`
	Type         string    `json:"transaction_type"` // sale / release / withdrawal / refund
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}
