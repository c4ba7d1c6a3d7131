package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vyzio_web_v1_202608/internal/api/dto"
	"vyzio_web_v1_202608/internal/middleware"
	"vyzio_web_v1_202608/internal/service"
	"vyzio_web_v1_202608/pkg/vyzio"
)

// ==================== 控制器 ====================

// SessionController 会话控制器
type SessionController struct {
	sessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// ==================== API 方法 ====================

// Login 密码登录
// @Summary 登录并创建会话
// @Tags Session
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录请求"
// @Success 201 {object} dto.SessionResponse
// @Router /api/session [post]
func (ctrl *SessionController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	sess, err := ctrl.sessionService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if apiErr, ok := err.(*vyzio.APIError); ok && apiErr.StatusCode >= 500 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"code":    status,
			"message": "登录失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data": dto.SessionResponse{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			Email:     sess.Email,
			Username:  sess.Username,
			Role:      sess.Role,
		},
	})
}

// Logout 登出
// @Summary 吊销令牌并销毁会话
// @Tags Session
// @Success 200 {object} map[string]interface{}
// @Router /api/session [delete]
func (ctrl *SessionController) Logout(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	if err := ctrl.sessionService.Logout(c.Request.Context(), sess.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "登出失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
	})
}

// Me 当前用户资料
// @Summary 获取当前登录用户资料
// @Tags Session
// @Produce json
// @Success 200 {object} dto.MeResponse
// @Router /api/session/me [get]
func (ctrl *SessionController) Me(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	profile, err := ctrl.sessionService.Me(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "资料拉取失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.MeResponse{Profile: profile},
	})
}
