package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vyzio_web_v1_202608/internal/middleware"
	"vyzio_web_v1_202608/internal/service"
)

// ==================== 控制器 ====================

// WalletController 钱包控制器
type WalletController struct {
	orderService *service.OrderService
}

func NewWalletController(orderService *service.OrderService) *WalletController {
	return &WalletController{orderService: orderService}
}

// ==================== API 方法 ====================

// Me 钱包概要
// @Summary 卖家钱包余额
// @Tags Wallet
// @Produce json
// @Success 200 {object} model.Wallet
// @Router /api/wallet [get]
func (ctrl *WalletController) Me(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	wallet, err := ctrl.orderService.Wallet(c.Request.Context(), sess)
	if err != nil {
		respondOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    wallet,
	})
}

// Transactions 钱包流水
// @Summary 卖家钱包流水
// @Tags Wallet
// @Produce json
// @Success 200 {array} model.WalletTransaction
// @Router /api/wallet/transactions [get]
func (ctrl *WalletController) Transactions(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	txs, err := ctrl.orderService.WalletTransactions(c.Request.Context(), sess)
	if err != nil {
		respondOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    txs,
	})
}
