package vyzio

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("签发测试令牌失败: %v", err)
	}

	got := TokenExpiry(raw)
	if !got.Equal(exp) {
		t.Fatalf("过期时间不符: 期望 %v 实际 %v", exp, got)
	}
}

func TestTokenExpiryInvalidToken(t *testing.T) {
	if got := TokenExpiry("not-a-jwt"); !got.IsZero() {
		t.Fatalf("非法令牌应返回零值, 实际 %v", got)
	}

	// 无 exp 声明同样返回零值
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"})
	raw, _ := token.SignedString([]byte("test-secret"))
	if got := TokenExpiry(raw); !got.IsZero() {
		t.Fatalf("缺 exp 的令牌应返回零值, 实际 %v", got)
	}
}
