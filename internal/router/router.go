package router

import (
	"github.com/gin-gonic/gin"

	"vyzio_web_v1_202608/internal/controller"
	"vyzio_web_v1_202608/internal/middleware"
	"vyzio_web_v1_202608/internal/service"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	sessionService *service.SessionService,
	sessionCtl *controller.SessionController,
	wizardCtl *controller.WizardController,
	orderCtl *controller.OrderController,
	walletCtl *controller.WalletController) {

	api := r.Group("/api")

	// 登录不需要会话
	api.POST("/session", sessionCtl.Login)

	// 其余全部走会话鉴权
	authed := api.Group("")
	authed.Use(middleware.SessionAuth(sessionService))
	{
		// session 会话组
		authed.DELETE("/session", sessionCtl.Logout)
		authed.GET("/session/me", sessionCtl.Me)

		// wizard 发布向导组
		wizard := authed.Group("/wizard")
		{
			wizard.POST("", wizardCtl.Start)
			wizard.GET("/:id", wizardCtl.State)
			wizard.PATCH("/:id", wizardCtl.Update)
			wizard.DELETE("/:id", wizardCtl.Close)
			wizard.POST("/:id/next", wizardCtl.Next)
			wizard.POST("/:id/prev", wizardCtl.Prev)
			wizard.POST("/:id/images", wizardCtl.AddImages)
			wizard.DELETE("/:id/images/:index", wizardCtl.RemoveImage)
			wizard.POST("/:id/submit", wizardCtl.Submit)
		}

		// order 订单组
		orders := authed.Group("/orders")
		{
			orders.GET("/sales", orderCtl.Sales)
			orders.GET("/purchases", orderCtl.Purchases)
			orders.POST("/sales/:id/ship", orderCtl.Ship)
			orders.POST("/sales/:id/mark-delivered", orderCtl.MarkDelivered)
			orders.POST("/purchases/:id/confirm-receipt", orderCtl.ConfirmReceipt)
		}

		// wallet 钱包组
		authed.GET("/wallet", walletCtl.Me)
		authed.GET("/wallet/transactions", walletCtl.Transactions)
	}
}
