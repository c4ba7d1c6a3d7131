package utils

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	SetCache("k1", "v1", time.Minute)

	got, ok := GetCache("k1")
	if !ok || got.(string) != "v1" {
		t.Fatalf("缓存读取失败: %v %v", got, ok)
	}

	DeleteCache("k1")
	if _, ok := GetCache("k1"); ok {
		t.Fatal("删除后不应命中")
	}
}

func TestCacheExpiry(t *testing.T) {
	// 过期时间取 Unix 秒，负 TTL 必然已过期
	SetCache("k2", "v2", -2*time.Second)
	if _, ok := GetCache("k2"); ok {
		t.Fatal("过期缓存不应命中")
	}
}
