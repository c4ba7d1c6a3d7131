package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"vyzio_web_v1_202608/internal/model"
)

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = errors.New("会话不存在")

// SessionRepository 会话仓库接口
type SessionRepository interface {
	Create(ctx context.Context, sess *model.UserSession) error
	GetByID(ctx context.Context, id string) (*model.UserSession, error)
	UpdateTokens(ctx context.Context, sess *model.UserSession) error
	MarkExpired(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// FindNearExpiry 查出 access token 在 within 内过期的有效会话（保活任务用）
	FindNearExpiry(ctx context.Context, within time.Duration) ([]model.UserSession, error)
}

// sessionRepo gorm 实现
type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓库
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, sess *model.UserSession) error {
	return r.db.WithContext(ctx).Create(sess).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.UserSession, error) {
	var sess model.UserSession
	err := r.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *sessionRepo) UpdateTokens(ctx context.Context, sess *model.UserSession) error {
	return r.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("id = ?", sess.ID).
		Updates(map[string]interface{}{
			"access_token":      sess.AccessToken,
			"refresh_token":     sess.RefreshToken,
			"access_expires_at": sess.AccessExpiresAt,
			"status":            model.SessionStatusActive,
		}).Error
}

func (r *sessionRepo) MarkExpired(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("id = ?", id).
		Update("status", model.SessionStatusExpired).Error
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.UserSession{}, "id = ?", id).Error
}

func (r *sessionRepo) FindNearExpiry(ctx context.Context, within time.Duration) ([]model.UserSession, error) {
	var sessions []model.UserSession
	deadline := time.Now().Add(within)
	err := r.db.WithContext(ctx).
		Where("status = ?", model.SessionStatusActive).
		Where("access_expires_at < ?", deadline).
		Find(&sessions).Error
	return sessions, err
}
