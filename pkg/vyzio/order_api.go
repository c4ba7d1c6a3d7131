package vyzio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"vyzio_web_v1_202608/internal/model"
)

// ==================== 订单列表 ====================

// orderPage DRF 分页信封
type orderPage struct {
	Count    int           `json:"count"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
	Results  []model.Order `json:"results"`
}

// parseOrderList 兼容分页信封与裸数组两种形态（线上两种都出现过）
func parseOrderList(body []byte) ([]model.Order, error) {
	var page orderPage
	if err := json.Unmarshal(body, &page); err == nil && page.Results != nil {
		return page.Results, nil
	}
	var orders []model.Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("订单列表解析失败: %w", err)
	}
	return orders, nil
}

func (c *Client) fetchOrders(ctx context.Context, sess *model.UserSession, path string) ([]model.Order, error) {
	resp, err := c.do(ctx, sess, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, parseAPIError(resp)
	}
	return parseOrderList(resp.Body())
}

// MySales 卖家订单列表
func (c *Client) MySales(ctx context.Context, sess *model.UserSession) ([]model.Order, error) {
	return c.fetchOrders(ctx, sess, "/orders/my-sales/")
}

// MyPurchases 买家订单列表
func (c *Client) MyPurchases(ctx context.Context, sess *model.UserSession) ([]model.Order, error) {
	return c.fetchOrders(ctx, sess, "/orders/my-purchases/")
}

// ==================== 订单动作 ====================
// 动作只是一次请求-响应，不做乐观更新；状态流转由服务端裁决，
// 调用方在动作成功后必须整单重拉

// Ship 卖家标记发货（可附运单号与承运商）
func (c *Client) Ship(ctx context.Context, sess *model.UserSession, orderID, trackingNumber, carrier string) error {
	resp, err := c.do(ctx, sess, http.MethodPost,
		fmt.Sprintf("/orders/my-sales/%s/ship/", orderID),
		func(r *resty.Request) *resty.Request {
			return r.SetBody(map[string]string{
				"tracking_number": trackingNumber,
				"carrier":         carrier,
			})
		})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// MarkDelivered 卖家确认当面交付完成
func (c *Client) MarkDelivered(ctx context.Context, sess *model.UserSession, orderID string) error {
	resp, err := c.do(ctx, sess, http.MethodPost,
		fmt.Sprintf("/orders/my-sales/%s/mark-delivered/", orderID), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// ConfirmReceipt 买家确认收货（触发资金释放给卖家）
func (c *Client) ConfirmReceipt(ctx context.Context, sess *model.UserSession, orderID string) error {
	resp, err := c.do(ctx, sess, http.MethodPost,
		fmt.Sprintf("/orders/my-purchases/%s/confirm-receipt/", orderID), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// ==================== 钱包 ====================

// WalletMe 卖家钱包概要
func (c *Client) WalletMe(ctx context.Context, sess *model.UserSession) (*model.Wallet, error) {
	resp, err := c.do(ctx, sess, http.MethodGet, "/orders/wallet/me/", nil)
	if err != nil {
		return nil, err
	}
	var wallet model.Wallet
	if err := decode(resp, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// WalletTransactions 钱包流水（服务端截断为最近 50 条）
func (c *Client) WalletTransactions(ctx context.Context, sess *model.UserSession) ([]model.WalletTransaction, error) {
	resp, err := c.do(ctx, sess, http.MethodGet, "/orders/wallet/transactions/", nil)
	if err != nil {
		return nil, err
	}
	var txs []model.WalletTransaction
	if err := decode(resp, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
