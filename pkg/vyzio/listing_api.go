package vyzio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"vyzio_web_v1_202608/internal/model"
)

// ==================== 分类 & 发布资格 ====================

// GetCategories 拉取分类列表
func (c *Client) GetCategories(ctx context.Context, sess *model.UserSession) ([]model.Category, error) {
	resp, err := c.do(ctx, sess, http.MethodGet, "/listings/categories/", nil)
	if err != nil {
		return nil, err
	}
	var categories []model.Category
	if err := decode(resp, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CanPublish 查询发布资格（订阅或积分）
func (c *Client) CanPublish(ctx context.Context, sess *model.UserSession) (*model.PublishEligibility, error) {
	resp, err := c.do(ctx, sess, http.MethodGet, "/listings/can_publish/", nil)
	if err != nil {
		return nil, err
	}
	var eligibility model.PublishEligibility
	if err := decode(resp, &eligibility); err != nil {
		return nil, err
	}
	return &eligibility, nil
}

// ==================== 创建刊登 ====================

// ImagePart 提交时的图片分片
// 持有完整字节而不是流：401 刷新后原请求会重放一次，
// 流式 reader 在首次发送时已被读空，重放会变成空文件
type ImagePart struct {
	FileName    string
	ContentType string
	Data        []byte
}

// CreateListing 提交草稿：文本字段 + images 文件，一次 multipart 请求
// 成功返回已发布的刊登；失败时草稿由调用方原样保留以便重试
func (c *Client) CreateListing(ctx context.Context, sess *model.UserSession, draft *model.ListingDraft, images []ImagePart) (*model.Listing, error) {
	fields := map[string]string{
		"title":        draft.Title,
		"description":  draft.Description,
		"price":        draft.Price,
		"category_id":  draft.CategoryID,
		"condition":    draft.Condition,
		"location":     draft.Location,
		"listing_type": draft.ListingType,
		// 直接发布（资格已在客户端与服务端双重校验）
		"status": "published",
	}

	resp, err := c.do(ctx, sess, http.MethodPost, "/listings/", func(r *resty.Request) *resty.Request {
		r.SetFormData(fields)
		for _, img := range images {
			// 每个文件都挂在 images 字段下，服务端按序落库，第一张为主图
			// 每次构建都开新的 reader，保证重放时文件内容完整
			r.SetMultipartField("images", img.FileName, img.ContentType, bytes.NewReader(img.Data))
		}
		return r
	})
	if err != nil {
		return nil, err
	}

	var listing model.Listing
	if err := decode(resp, &listing); err != nil {
		return nil, err
	}
	if listing.ID == "" {
		return nil, fmt.Errorf("创建刊登响应缺少 ID")
	}
	return &listing, nil
}
