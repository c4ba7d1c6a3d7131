package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"vyzio_web_v1_202608/internal/model"
	"vyzio_web_v1_202608/internal/service"
)

// SessionTask 会话保活任务
// 定期刷新临期的 access token，并清理空闲超时的发布向导
type SessionTask struct {
	SessionService *service.SessionService
	WizardService  *service.WizardService
	Cron           *cron.Cron

	// 控制并发刷新的数量，避免瞬间打爆上游鉴权接口
	concurrencyLimit int
	sleepTime        time.Duration

	// access token 还剩多久进入刷新窗口
	refreshWindow time.Duration
	// 向导空闲多久视为废弃
	wizardMaxIdle time.Duration
}

func NewSessionTask(sessionService *service.SessionService, wizardService *service.WizardService) *SessionTask {
	return &SessionTask{
		SessionService:   sessionService,
		WizardService:    wizardService,
		Cron:             cron.New(cron.WithSeconds()), // 支持秒级控制
		concurrencyLimit: 10,
		sleepTime:        50 * time.Millisecond, // 每个协程启动间隔，平滑波峰
		refreshWindow:    10 * time.Minute,
		wizardMaxIdle:    2 * time.Hour,
	}
}

// Start 启动定时任务
func (t *SessionTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[Task] 服务启动，正在执行首次会话保活检查...")
		t.refreshJob(ctx)
	}()

	// 每 5 分钟查一轮临期会话
	_, err := t.Cron.AddFunc("0 0/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.refreshJob(ctx)
	})
	if err != nil {
		log.Fatalf("无法启动会话保活任务: %v", err)
	}

	// 每 30 分钟清一轮废弃向导
	_, err = t.Cron.AddFunc("0 0/30 * * * *", func() {
		if t.WizardService == nil {
			return
		}
		if n := t.WizardService.SweepIdle(t.wizardMaxIdle); n > 0 {
			log.Printf("[Cron] 清理空闲向导 %d 个", n)
		}
	})
	if err != nil {
		log.Fatalf("无法启动向导清理任务: %v", err)
	}

	t.Cron.Start()
	log.Println("会话保活任务已启动 (每5分钟检查一次)")
}

// Stop 停止定时任务
func (t *SessionTask) Stop() {
	t.Cron.Stop()
	log.Println("会话保活任务已停止")
}

// refreshJob 刷新所有临期会话
func (t *SessionTask) refreshJob(ctx context.Context) {
	sessions, err := t.SessionService.FindNearExpiry(ctx, t.refreshWindow)
	if err != nil {
		log.Printf("[Cron] 临期会话查询失败: %v", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	// 信号量通道限流，容量即并发上限
	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	log.Printf("[Cron] 开始刷新 %d 个临期会话，并发上限: %d", len(sessions), t.concurrencyLimit)

	for _, sess := range sessions {
		select {
		case <-ctx.Done():
			log.Println("[Cron] 任务超时停止")
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)

		// 平滑波峰
		time.Sleep(t.sleepTime)

		go func(s model.UserSession) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := t.SessionService.Refresh(ctx, &s); err != nil {
				// 刷新失败的会话已被标记过期，用户下次请求会收到 401
				log.Printf("[Cron] 会话 [%s] 刷新失败: %v", s.ID, err)
			}
		}(sess)
	}

	wg.Wait()
	log.Println("[Cron] 本轮会话保活完成")
}
