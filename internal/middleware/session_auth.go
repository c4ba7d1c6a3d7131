package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vyzio_web_v1_202608/internal/model"
	"vyzio_web_v1_202608/internal/repository"
	"vyzio_web_v1_202608/internal/service"
	"vyzio_web_v1_202608/pkg/vyzio"
)

const sessionKey = "user_session"

// SessionAuth 会话鉴权中间件
// 请求头 X-Session-ID 换会话；会话不存在或已过期时返回 401，
// 前端收到 401 即清空本地状态回登录页（强制登出）
func SessionAuth(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("X-Session-ID")
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "缺少会话标识",
			})
			return
		}

		sess, err := sessions.Current(c.Request.Context(), sessionID)
		if err != nil {
			message := "会话无效"
			if errors.Is(err, vyzio.ErrSessionExpired) {
				message = "会话已过期，请重新登录"
			} else if errors.Is(err, repository.ErrSessionNotFound) {
				message = "会话不存在"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": message,
			})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// CurrentSession 从上下文取会话（必须在 SessionAuth 之后调用）
func CurrentSession(c *gin.Context) *model.UserSession {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*model.UserSession); ok {
			return sess
		}
	}
	return nil
}
