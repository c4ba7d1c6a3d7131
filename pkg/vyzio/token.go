package vyzio

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry 解出 access token 的过期时间
// 只取 exp 声明用于保活调度，不做签名校验（签名是服务端的事）
func TokenExpiry(raw string) time.Time {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
