package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vyzio_web_v1_202608/internal/model"
	"vyzio_web_v1_202608/internal/repository"
	"vyzio_web_v1_202608/internal/service"
	"vyzio_web_v1_202608/pkg/vyzio"
)

type stubAuthAPI struct{}

func (stubAuthAPI) Login(ctx context.Context, email, password string) (*vyzio.LoginResult, error) {
	return nil, nil
}
func (stubAuthAPI) Logout(ctx context.Context, sess *model.UserSession) error { return nil }
func (stubAuthAPI) Me(ctx context.Context, sess *model.UserSession) (json.RawMessage, error) {
	return nil, nil
}
func (stubAuthAPI) RefreshSession(ctx context.Context, sess *model.UserSession) error { return nil }

func setupAuthTest(t *testing.T) (*gin.Engine, repository.SessionRepository) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.UserSession{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	repo := repository.NewSessionRepository(db)
	sessions := service.NewSessionService(repo, stubAuthAPI{})

	r := gin.New()
	r.GET("/protected", SessionAuth(sessions), func(c *gin.Context) {
		sess := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"username": sess.Username})
	})
	return r, repo
}

func TestSessionAuthMissingHeader(t *testing.T) {
	r, _ := setupAuthTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthUnknownSession(t *testing.T) {
	r, _ := setupAuthTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Session-ID", "nope")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthExpiredSessionForcesLogout(t *testing.T) {
	r, repo := setupAuthTest(t)
	ctx := context.Background()

	repo.Create(ctx, &model.UserSession{
		ID:              "s1",
		Username:        "alice",
		AccessExpiresAt: time.Now().Add(time.Hour),
		Status:          model.SessionStatusActive,
	})
	repo.MarkExpired(ctx, "s1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Session-ID", "s1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthPassesSessionToHandler(t *testing.T) {
	r, repo := setupAuthTest(t)

	repo.Create(context.Background(), &model.UserSession{
		ID:              "s1",
		Username:        "alice",
		AccessExpiresAt: time.Now().Add(time.Hour),
		Status:          model.SessionStatusActive,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Session-ID", "s1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}
