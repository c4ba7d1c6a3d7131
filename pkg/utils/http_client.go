package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewAPIClient 创建统一配置的 Resty 客户端
// 它是全系统访问市场 API 的唯一网络入口
func NewAPIClient(baseURL string, debug bool) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetDebug(debug).                          // 调试开关（上线由配置控制）
		SetTimeout(20*time.Second).               // 列表接口可能比较慢，给 20s
		SetHeader("User-Agent", "Vyzio-Web/1.0"). // 标准 UA
		SetHeader("Accept", "application/json")

	return client
}
