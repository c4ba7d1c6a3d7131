package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"vyzio_web_v1_202608/internal/model"
	"vyzio_web_v1_202608/pkg/utils"
	"vyzio_web_v1_202608/pkg/vyzio"
)

// 分类列表全站一份，短缓存避免每次开向导都打上游
const categoriesCacheKey = "vyzio:categories"

// ==================== 错误定义 ====================

var (
	ErrWizardNotFound = errors.New("发布向导不存在或已结束")
	ErrWizardClosed   = errors.New("发布向导已关闭")
	ErrSubmitInFlight = errors.New("正在提交中，请勿重复操作")
	ErrPublishBlocked = errors.New("当前账户不满足发布条件")
	ErrNotLastStep    = errors.New("尚未到达最后一步，不能提交")
)

// ==================== 依赖接口 ====================

// MarketAPI 发布向导依赖的市场接口
type MarketAPI interface {
	GetCategories(ctx context.Context, sess *model.UserSession) ([]model.Category, error)
	CanPublish(ctx context.Context, sess *model.UserSession) (*model.PublishEligibility, error)
	CreateListing(ctx context.Context, sess *model.UserSession, draft *model.ListingDraft, images []vyzio.ImagePart) (*model.Listing, error)
}

// ImageStager 图片暂存接口（StorageService 实现）
type ImageStager interface {
	Stage(ctx context.Context, data []byte, filename string, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Remove(ctx context.Context, ref string) error
}

// ==================== 类型定义 ====================

// ImageUpload 一张待暂存的上传图片
type ImageUpload struct {
	Data        []byte
	FileName    string
	ContentType string
}

// WizardState 向导状态快照（返回给接口层，内部状态不外泄）
type WizardState struct {
	ID          string                    `json:"id"`
	Step        int                       `json:"step"`
	Draft       model.ListingDraft        `json:"draft"`
	Errors      map[string]string         `json:"errors"`
	Categories  []model.Category          `json:"categories"`
	Eligibility *model.PublishEligibility `json:"eligibility"`
	Submitting  bool                      `json:"submitting"`
}

// wizardSession 单个向导的内部状态
// 所有读写都走自身的互斥锁，closed 置位后一切修改拒绝生效，
// 避免后台拉取/提交落地到已关闭的向导上
type wizardSession struct {
	mu          sync.Mutex
	owner       *model.UserSession
	draft       *model.ListingDraft
	step        int
	categories  []model.Category
	eligibility *model.PublishEligibility
	errors      map[string]string
	submitting  bool
	closed      bool
	lastTouched time.Time
}

func (w *wizardSession) snapshot(id string) *WizardState {
	return &WizardState{
		ID:          id,
		Step:        w.step,
		Draft:       *w.draft,
		Errors:      w.errors,
		Categories:  w.categories,
		Eligibility: w.eligibility,
		Submitting:  w.submitting,
	}
}

// ==================== WizardService ====================

// WizardService 发布向导服务
// 四步向导：基本信息 -> 详情 -> 价格与地点 -> 照片与提交
// 向导状态留在内存里，提交成功后整体销毁，草稿不落库
type WizardService struct {
	mu       sync.RWMutex
	sessions map[string]*wizardSession

	api    MarketAPI
	stager ImageStager
}

// NewWizardService 创建发布向导服务
func NewWizardService(api MarketAPI, stager ImageStager) *WizardService {
	return &WizardService{
		sessions: make(map[string]*wizardSession),
		api:      api,
		stager:   stager,
	}
}

// Start 开一个新向导
// 类目和发布资格在后台并发拉取，不阻塞向导打开；
// 拉取落地前检查 closed，向导若已关闭则丢弃结果
func (s *WizardService) Start(ctx context.Context, owner *model.UserSession) *WizardState {
	id := uuid.NewString()
	w := &wizardSession{
		owner:       owner,
		draft:       model.NewListingDraft(),
		step:        model.WizardStepMin,
		errors:      map[string]string{},
		lastTouched: time.Now(),
	}

	s.mu.Lock()
	s.sessions[id] = w
	s.mu.Unlock()

	go func() {
		categories, err := s.loadCategories(context.Background(), owner)
		if err != nil {
			log.Printf("[Wizard] 类目拉取失败: %v", err)
			return
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.closed {
			w.categories = categories
		}
	}()

	go func() {
		eligibility, err := s.api.CanPublish(context.Background(), owner)
		if err != nil {
			// 拉不到资格时不拦提交，以服务端最终校验为准
			log.Printf("[Wizard] 发布资格拉取失败: %v", err)
			return
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.closed {
			w.eligibility = eligibility
		}
	}()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot(id)
}

// loadCategories 优先读缓存，未命中再打上游
func (s *WizardService) loadCategories(ctx context.Context, owner *model.UserSession) ([]model.Category, error) {
	if cached, ok := utils.GetCache(categoriesCacheKey); ok {
		if categories, ok := cached.([]model.Category); ok {
			return categories, nil
		}
	}
	categories, err := s.api.GetCategories(ctx, owner)
	if err != nil {
		return nil, err
	}
	utils.SetCache(categoriesCacheKey, categories, 10*time.Minute)
	return categories, nil
}

// get 取向导并校验归属，closed 或他人的向导一律视同不存在
func (s *WizardService) get(sess *model.UserSession, id string) (*wizardSession, error) {
	s.mu.RLock()
	w, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrWizardNotFound
	}
	if sess == nil || w.owner.ID != sess.ID {
		return nil, ErrWizardNotFound
	}
	return w, nil
}

// State 当前向导快照
func (s *WizardService) State(sess *model.UserSession, id string) (*WizardState, error) {
	w, err := s.get(sess, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWizardClosed
	}
	return w.snapshot(id), nil
}

// FieldPatch 草稿字段更新（nil 字段不动）
type FieldPatch struct {
	Title       *string
	Description *string
	Price       *string
	CategoryID  *string
	Condition   *string
	Location    *string
	ListingType *string
}

// UpdateFields 更新草稿字段，任一步都可改任意字段
// 更新时顺手清掉当前步的旧校验错误，下次 Next/Submit 重新算
func (s *WizardService) UpdateFields(sess *model.UserSession, id string, patch FieldPatch) (*WizardState, error) {
	w, err := s.get(sess, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWizardClosed
	}

	d := w.draft
	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.Price != nil {
		d.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		d.CategoryID = *patch.CategoryID
	}
	if patch.Condition != nil && model.IsValidCondition(*patch.Condition) {
		d.Condition = *patch.Condition
	}
	if patch.Location != nil {
		d.Location = *patch.Location
	}
	if patch.ListingType != nil && model.IsValidListingType(*patch.ListingType) {
		d.ListingType = *patch.ListingType
	}

	w.errors = map[string]string{}
	w.lastTouched = time.Now()
	return w.snapshot(id), nil
}

// AddImages 上传图片到暂存区并挂进草稿
// 超出 10 张上限的部分丢弃，返回实际保留的张数；第一张即主图
func (s *WizardService) AddImages(ctx context.Context, sess *model.UserSession, id string, uploads []ImageUpload) (*WizardState, int, error) {
	w, err := s.get(sess, id)
	if err != nil {
		return nil, 0, err
	}

	// 先落暂存（网络/磁盘 IO 不持锁）
	staged := make([]model.DraftImage, 0, len(uploads))
	for _, up := range uploads {
		ref, err := s.stager.Stage(ctx, up.Data, up.FileName, up.ContentType)
		if err != nil {
			// 已暂存的部分回滚
			for _, img := range staged {
				s.cleanupStaged(img.StageRef)
			}
			return nil, 0, fmt.Errorf("图片暂存失败: %w", err)
		}
		staged = append(staged, model.DraftImage{
			FileName:    up.FileName,
			ContentType: up.ContentType,
			Size:        int64(len(up.Data)),
			StageRef:    ref,
		})
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		for _, img := range staged {
			s.cleanupStaged(img.StageRef)
		}
		return nil, 0, ErrWizardClosed
	}
	retained := w.draft.AddImages(staged)
	w.lastTouched = time.Now()
	state := w.snapshot(id)
	w.mu.Unlock()

	// 被上限截掉的部分清理暂存
	for _, img := range staged[len(retained):] {
		s.cleanupStaged(img.StageRef)
	}
	return state, len(retained), nil
}

// RemoveImage 按下标移除一张图片并清理暂存
func (s *WizardService) RemoveImage(ctx context.Context, sess *model.UserSession, id string, index int) (*WizardState, error) {
	w, err := s.get(sess, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWizardClosed
	}
	removed, ok := w.draft.RemoveImage(index)
	w.lastTouched = time.Now()
	state := w.snapshot(id)
	w.mu.Unlock()

	if ok {
		s.cleanupStaged(removed.StageRef)
	}
	return state, nil
}

// Next 前进一步：先校验当前步，过了才动
func (s *WizardService) Next(sess *model.UserSession, id string) (*WizardState, error) {
	w, err := s.get(sess, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWizardClosed
	}

	errs := w.draft.Validate(w.step)
	w.errors = errs
	if len(errs) == 0 && w.step < model.WizardStepMax {
		w.step++
	}
	w.lastTouched = time.Now()
	return w.snapshot(id), nil
}

// Prev 回退一步，不做校验，已填内容保留
func (s *WizardService) Prev(sess *model.UserSession, id string) (*WizardState, error) {
	w, err := s.get(sess, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWizardClosed
	}
	if w.step > model.WizardStepMin {
		w.step--
	}
	w.errors = map[string]string{}
	w.lastTouched = time.Now()
	return w.snapshot(id), nil
}

// Submit 提交发布
// 只在最后一步可提交；重新跑全量校验；资格明确为不可发布时拒绝，
// 资格未知（还没拉到）不拦，交给服务端裁决。
// 提交成功后向导整体销毁并清理暂存图片；失败则草稿原样保留
func (s *WizardService) Submit(ctx context.Context, sess *model.UserSession, id string) (*model.Listing, error) {
	w, err := s.get(sess, id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWizardClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if w.step != model.WizardStepMax {
		w.mu.Unlock()
		return nil, ErrNotLastStep
	}

	// 全量重校验，防止中途字段被改坏
	allErrs := map[string]string{}
	for step := model.WizardStepMin; step <= model.WizardStepMax; step++ {
		for field, msg := range w.draft.Validate(step) {
			allErrs[field] = msg
		}
	}
	if len(allErrs) > 0 {
		w.errors = allErrs
		w.mu.Unlock()
		return nil, &ValidationError{Fields: allErrs}
	}

	if w.eligibility != nil && !w.eligibility.CanPublish {
		w.mu.Unlock()
		msg := w.eligibility.Message
		if msg == "" {
			msg = w.eligibility.Reason
		}
		return nil, fmt.Errorf("%w: %s", ErrPublishBlocked, msg)
	}

	w.submitting = true
	draftCopy := *w.draft
	images := make([]model.DraftImage, len(w.draft.Images))
	copy(images, w.draft.Images)
	w.mu.Unlock()

	// 读出暂存图片完整字节拼 multipart（不持锁做 IO）
	// 整体读入内存，401 刷新后的重放才能带上完整文件
	parts := make([]vyzio.ImagePart, 0, len(images))
	for _, img := range images {
		rc, err := s.stager.Open(ctx, img.StageRef)
		if err != nil {
			s.finishSubmit(w)
			return nil, fmt.Errorf("读取暂存图片失败: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			s.finishSubmit(w)
			return nil, fmt.Errorf("读取暂存图片失败: %w", err)
		}
		parts = append(parts, vyzio.ImagePart{
			FileName:    img.FileName,
			ContentType: img.ContentType,
			Data:        data,
		})
	}

	listing, err := s.api.CreateListing(ctx, sess, &draftCopy, parts)
	if err != nil {
		// 失败：草稿和暂存图片都原样保留，可改完重试
		s.finishSubmit(w)
		return nil, err
	}

	// 成功：销毁向导，清理暂存
	s.destroy(id, w)
	return listing, nil
}

// Close 关闭向导（页面离开）：置 closed，清理暂存图片
// 在途的后台拉取和提交结果会被 closed 标志挡掉，不再写入
func (s *WizardService) Close(ctx context.Context, sess *model.UserSession, id string) error {
	w, err := s.get(sess, id)
	if err != nil {
		return err
	}
	s.destroy(id, w)
	return nil
}

// SweepIdle 清理空闲超时的向导（定时任务调用），返回清掉的数量
func (s *WizardService) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.RLock()
	stale := make(map[string]*wizardSession)
	for id, w := range s.sessions {
		w.mu.Lock()
		if !w.submitting && w.lastTouched.Before(cutoff) {
			stale[id] = w
		}
		w.mu.Unlock()
	}
	s.mu.RUnlock()

	for id, w := range stale {
		s.destroy(id, w)
	}
	return len(stale)
}

// destroy 摘掉向导并清理其暂存图片
func (s *WizardService) destroy(id string, w *wizardSession) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.submitting = false
	images := w.draft.Images
	w.mu.Unlock()

	for _, img := range images {
		s.cleanupStaged(img.StageRef)
	}
}

func (s *WizardService) finishSubmit(w *wizardSession) {
	w.mu.Lock()
	w.submitting = false
	w.mu.Unlock()
}

func (s *WizardService) cleanupStaged(ref string) {
	if ref == "" {
		return
	}
	if err := s.stager.Remove(context.Background(), ref); err != nil {
		log.Printf("[Wizard] 暂存图片清理失败 %s: %v", ref, err)
	}
}

// ==================== 校验错误 ====================

// ValidationError 字段级校验错误
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("表单校验未通过（%d 个字段）", len(e.Fields))
}
