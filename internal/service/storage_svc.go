package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ==================== 接口定义 ====================

// StageProvider 图片暂存提供者接口
// 向导里上传的图片先进暂存区，提交时按引用读出拼进 multipart，
// 提交成功或向导关闭后清理
type StageProvider interface {
	// Stage 写入暂存区，返回引用（本地路径或对象 Key）
	Stage(ctx context.Context, data []byte, filename string, contentType string) (ref string, err error)

	// Open 按引用读出暂存内容
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Remove 删除暂存文件
	Remove(ctx context.Context, ref string) error
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider  string // "local" | "s3"
	BaseDir   string // local: 暂存目录
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // 自定义端点 (S3 兼容存储)
	BasePath  string // 对象 Key 前缀
}

// ==================== 工厂方法 ====================

func NewStageProvider(cfg *StorageConfig) (StageProvider, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalStage(cfg)
	case "s3":
		return NewS3Stage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== StorageService 包装层 ====================

// StorageService 暂存服务（包装 StageProvider）
type StorageService struct {
	provider StageProvider
	config   *StorageConfig
}

// NewStorageService 创建暂存服务
func NewStorageService(cfg *StorageConfig) (*StorageService, error) {
	provider, err := NewStageProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &StorageService{provider: provider, config: cfg}, nil
}

func (s *StorageService) Stage(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	return s.provider.Stage(ctx, data, filename, contentType)
}

func (s *StorageService) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return s.provider.Open(ctx, ref)
}

func (s *StorageService) Remove(ctx context.Context, ref string) error {
	return s.provider.Remove(ctx, ref)
}

// ==================== 本地实现 ====================

type LocalStage struct {
	baseDir string
}

func NewLocalStage(cfg *StorageConfig) (*LocalStage, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "vyzio-stage")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建暂存目录失败: %v", err)
	}
	return &LocalStage{baseDir: baseDir}, nil
}

func (l *LocalStage) Stage(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	dir := filepath.Join(l.baseDir, time.Now().Format("2006/01/02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建暂存目录失败: %v", err)
	}

	path := filepath.Join(dir, stageFilename(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入暂存文件失败: %v", err)
	}
	return path, nil
}

func (l *LocalStage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return os.Open(ref)
}

func (l *LocalStage) Remove(ctx context.Context, ref string) error {
	err := os.Remove(ref)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ==================== S3 实现 ====================

type S3Stage struct {
	client   *s3.Client
	bucket   string
	basePath string
}

func NewS3Stage(cfg *StorageConfig) (*S3Stage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// 兼容 MinIO 等 S3 协议存储
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Stage{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
	}, nil
}

func (s *S3Stage) Stage(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	key := s.generateKey(filename)

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传S3失败: %v", err)
	}
	return key, nil
}

func (s *S3Stage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("读取S3暂存文件失败: %v", err)
	}
	return out.Body, nil
}

func (s *S3Stage) Remove(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	return err
}

func (s *S3Stage) generateKey(filename string) string {
	datePath := time.Now().Format("2006/01/02")
	if s.basePath != "" {
		return fmt.Sprintf("%s/%s/%s", s.basePath, datePath, stageFilename(filename))
	}
	return fmt.Sprintf("%s/%s", datePath, stageFilename(filename))
}

// stageFilename 用 uuid 重命名，保留扩展名
func stageFilename(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	return uuid.New().String() + ext
}
