package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vyzio_web_v1_202608/internal/controller"
	"vyzio_web_v1_202608/internal/model"
	"vyzio_web_v1_202608/internal/repository"
	"vyzio_web_v1_202608/internal/router"
	"vyzio_web_v1_202608/internal/service"
	"vyzio_web_v1_202608/internal/task"
	"vyzio_web_v1_202608/pkg/database"
	"vyzio_web_v1_202608/pkg/vyzio"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := gin.Default()
	router.InitRoutes(r,
		deps.Services.Session,
		deps.Controllers.Session,
		deps.Controllers.Wizard,
		deps.Controllers.Order,
		deps.Controllers.Wallet,
	)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Client      *vyzio.Client
	Services    *Services
	Controllers *Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Session repository.SessionRepository
}

// Services 服务集合
type Services struct {
	Session *service.SessionService
	Wizard  *service.WizardService
	Order   *service.OrderService
	Storage *service.StorageService
}

// Controllers 控制器集合
type Controllers struct {
	Session *controller.SessionController
	Wizard  *controller.WizardController
	Order   *controller.OrderController
	Wallet  *controller.WalletController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=vyzio password=vyzio dbname=vyzio_web port=5432 sslmode=disable")
	return database.InitDB(dsn,
		&model.UserSession{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Session: repository.NewSessionRepository(db),
	}

	// -------- 上游客户端 --------
	debug, _ := strconv.ParseBool(getEnv("HTTP_DEBUG", "false"))
	client := vyzio.NewClient(
		getEnv("VYZIO_API_URL", "https://api.vyzio.com/api"),
		debug,
		service.NewSessionSink(repos.Session),
	)

	// -------- 存储服务 --------
	storageSvc := initStorageService()

	// -------- 业务服务 --------
	services := &Services{
		Storage: storageSvc,
	}
	services.Session = service.NewSessionService(repos.Session, client)
	services.Wizard = service.NewWizardService(client, storageSvc)
	services.Order = service.NewOrderService(client)

	// -------- Controller 层 --------
	controllers := &Controllers{
		Session: controller.NewSessionController(services.Session),
		Wizard:  controller.NewWizardController(services.Wizard),
		Order:   controller.NewOrderController(services.Order),
		Wallet:  controller.NewWalletController(services.Order),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Client:      client,
		Services:    services,
		Controllers: controllers,
	}
}

// initStorageService 初始化存储服务
func initStorageService() *service.StorageService {
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "local"),
		BaseDir:   getEnv("STORAGE_BASE_DIR", ""),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "vyzio-stage"),
	})
	if err != nil {
		log.Fatalf("存储服务初始化失败: %v", err)
	}
	return storageSvc
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	sessionTask := task.NewSessionTask(
		deps.Services.Session,
		deps.Services.Wizard,
	)
	sessionTask.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
