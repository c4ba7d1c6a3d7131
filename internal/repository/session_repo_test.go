package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vyzio_web_v1_202608/internal/model"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.UserSession{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newSession(id string, expiresIn time.Duration) *model.UserSession {
	return &model.UserSession{
		ID:              id,
		UserID:          "u1",
		Email:           "alice@vyzio.com",
		Username:        "alice",
		Role:            model.UserRoleSeller,
		AccessToken:     "access",
		RefreshToken:    "refresh",
		AccessExpiresAt: time.Now().Add(expiresIn),
		Status:          model.SessionStatusActive,
	}
}

func TestSessionRepoCRUD(t *testing.T) {
	repo := NewSessionRepository(setupRepoTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, newSession("s1", time.Hour)); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("会话内容不符: %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("不存在的会话应返回 ErrSessionNotFound, 实际 %v", err)
	}

	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := repo.GetByID(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("删除后应查不到, 实际 %v", err)
	}
}

func TestSessionRepoUpdateTokensReactivates(t *testing.T) {
	repo := NewSessionRepository(setupRepoTestDB(t))
	ctx := context.Background()

	sess := newSession("s1", time.Hour)
	repo.Create(ctx, sess)
	repo.MarkExpired(ctx, "s1")

	// 刷新成功后会话整体复活
	sess.AccessToken = "new-access"
	sess.RefreshToken = "new-refresh"
	sess.AccessExpiresAt = time.Now().Add(2 * time.Hour)
	if err := repo.UpdateTokens(ctx, sess); err != nil {
		t.Fatalf("更新令牌失败: %v", err)
	}

	got, _ := repo.GetByID(ctx, "s1")
	if got.AccessToken != "new-access" {
		t.Fatalf("access token 未更新: %s", got.AccessToken)
	}
	if got.Status != model.SessionStatusActive {
		t.Fatalf("刷新后状态应为 active: %s", got.Status)
	}
}

func TestSessionRepoFindNearExpiry(t *testing.T) {
	repo := NewSessionRepository(setupRepoTestDB(t))
	ctx := context.Background()

	repo.Create(ctx, newSession("soon", 5*time.Minute))
	repo.Create(ctx, newSession("later", 2*time.Hour))

	expired := newSession("dead", time.Minute)
	repo.Create(ctx, expired)
	repo.MarkExpired(ctx, "dead")

	sessions, err := repo.FindNearExpiry(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "soon" {
		t.Fatalf("临期筛选不符: %v", sessions)
	}
}
