package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vyzio_web_v1_202608/internal/api/dto"
	"vyzio_web_v1_202608/internal/middleware"
	"vyzio_web_v1_202608/internal/service"
	"vyzio_web_v1_202608/pkg/vyzio"
)

// ==================== 控制器 ====================

// OrderController 订单控制器
type OrderController struct {
	orderService *service.OrderService
}

func NewOrderController(orderService *service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// ==================== 列表 ====================

// Sales 卖家订单列表
// @Summary 卖家视角订单列表（含钱包）
// @Tags Order
// @Produce json
// @Param status query string false "状态筛选"
// @Param keyword query string false "关键词（单号/商品/买家）"
// @Success 200 {object} service.SellerBoard
// @Router /api/orders/sales [get]
func (ctrl *OrderController) Sales(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	board, err := ctrl.orderService.Sales(c.Request.Context(), sess, service.OrderFilter{
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
	})
	if err != nil {
		respondOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    board,
	})
}

// Purchases 买家订单列表
// @Summary 买家视角订单列表
// @Tags Order
// @Produce json
// @Param status query string false "状态筛选"
// @Param keyword query string false "关键词（单号/商品/卖家）"
// @Success 200 {array} service.OrderView
// @Router /api/orders/purchases [get]
func (ctrl *OrderController) Purchases(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	views, err := ctrl.orderService.Purchases(c.Request.Context(), sess, service.OrderFilter{
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
	})
	if err != nil {
		respondOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    views,
	})
}

// ==================== 动作 ====================

// Ship 发货
// @Summary 卖家标记发货
// @Tags Order
// @Accept json
// @Param id path string true "订单ID"
// @Param body body dto.ShipRequest false "运单信息"
// @Success 200 {object} service.SellerBoard
// @Router /api/orders/sales/{id}/ship [post]
func (ctrl *OrderController) Ship(c *gin.Context) {
	var req dto.ShipRequest
	// 请求体可为空（无运单号发货）
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "参数错误: " + err.Error(),
			})
			return
		}
	}

	sess := middleware.CurrentSession(c)
	board, err := ctrl.orderService.Ship(c.Request.Context(), sess, c.Param("id"), req.TrackingNumber, req.Carrier)
	if err != nil {
		respondOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    board,
	})
}

// MarkDelivered 标记送达
// @Summary 卖家确认当面交付完成
// @Tags Order
// @Param id path string true "订单ID"
// @Success 200 {object} service.SellerBoard
// @Router /api/orders/sales/{id}/mark-delivered [post]
func (ctrl *OrderController) MarkDelivered(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	board, err := ctrl.orderService.MarkDelivered(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		respondOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    board,
	})
}

// ConfirmReceipt 确认收货
// @Summary 买家确认收货
// @Tags Order
// @Param id path string true "订单ID"
// @Success 200 {array} service.OrderView
// @Router /api/orders/purchases/{id}/confirm-receipt [post]
func (ctrl *OrderController) ConfirmReceipt(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	views, err := ctrl.orderService.ConfirmReceipt(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		respondOrderErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    views,
	})
}

// ==================== 错误映射 ====================

// respondOrderErr 把订单错误映射到 HTTP 状态码
func respondOrderErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderActionInFlight):
		c.JSON(http.StatusConflict, gin.H{
			"code":    409,
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrActionNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": err.Error(),
		})
	case errors.Is(err, vyzio.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "会话已过期，请重新登录",
		})
	default:
		status := http.StatusBadGateway
		if apiErr, ok := err.(*vyzio.APIError); ok && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		c.JSON(status, gin.H{
			"code":    status,
			"message": err.Error(),
		})
	}
}
