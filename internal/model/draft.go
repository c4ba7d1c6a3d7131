package model

import (
	"strconv"
	"strings"
)

// ==================== 向导常量 ====================

const (
	// 向导步骤（线性，不可跳步）
	WizardStepBasic       = 1 // 标题 / 分类 / 类型
	WizardStepDescription = 2 // 描述 / 成色
	WizardStepPricing     = 3 // 价格 / 地区
	WizardStepPhotos      = 4 // 图片 / 摘要

	WizardStepMin = WizardStepBasic
	WizardStepMax = WizardStepPhotos

	// 图片上限，超出部分直接截断（与线上行为保持一致）
	MaxDraftImages = 10

	// 文本长度限制
	TitleMinLen       = 5
	TitleMaxLen       = 100
	DescriptionMinLen = 20
	DescriptionMaxLen = 2000
)

// 商品成色
const (
	ConditionNew     = "new"      // 全新
	ConditionLikeNew = "like_new" // 几乎全新
	ConditionGood    = "good"     // 良好
	ConditionFair    = "fair"     // 一般
	ConditionPoor    = "poor"     // 较旧
)

// 刊登类型
const (
	ListingTypeProduct = "product" // 出售
	ListingTypeRental  = "rental"  // 出租
	ListingTypeService = "service" // 服务
)

// Conditions 成色枚举全集
var Conditions = []string{
	ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor,
}

// ListingTypes 刊登类型全集
var ListingTypes = []string{ListingTypeProduct, ListingTypeRental, ListingTypeService}

// IsValidCondition 判断成色是否合法
func IsValidCondition(c string) bool {
	for _, v := range Conditions {
		if v == c {
			return true
		}
	}
	return false
}

// IsValidListingType 判断刊登类型是否合法
func IsValidListingType(t string) bool {
	for _, v := range ListingTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ==================== 草稿 ====================

// DraftImage 向导中暂存的图片
// 上传后先落到暂存区（本地/S3），提交时再随 multipart 一起推给服务端
type DraftImage struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	StageRef    string `json:"-"` // 暂存区引用（本地路径或对象 Key）
}

// ListingDraft 刊登草稿
// 纯客户端数据：提交成功前服务端不存在任何部分状态，向导关闭即丢弃
type ListingDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       string       `json:"price"` // 保留用户原始输入，校验时再解析
	CategoryID  string       `json:"category_id"`
	Condition   string       `json:"condition"`
	Location    string       `json:"location"`
	ListingType string       `json:"listing_type"`
	Images      []DraftImage `json:"images"` // 第一张为主图
}

// NewListingDraft 创建空草稿（向导挂载时调用）
// 成色与类型沿用线上表单的默认选中项
func NewListingDraft() *ListingDraft {
	return &ListingDraft{
		Condition:   ConditionGood,
		ListingType: ListingTypeProduct,
	}
}

// ==================== 分步校验 ====================

// Validate 校验指定步骤，返回 字段 -> 错误信息
// 纯函数、同步执行；只校验当前离开的步骤，不回查之前的步骤
func (d *ListingDraft) Validate(step int) map[string]string {
	errs := make(map[string]string)

	switch step {
	case WizardStepBasic:
		title := strings.TrimSpace(d.Title)
		if title == "" {
			errs["title"] = "标题不能为空"
		} else if len([]rune(title)) < TitleMinLen {
			errs["title"] = "标题至少 5 个字符"
		}
		if d.CategoryID == "" {
			errs["category_id"] = "请选择分类"
		}
		if d.ListingType != "" && !IsValidListingType(d.ListingType) {
			errs["listing_type"] = "刊登类型不合法"
		}

	case WizardStepDescription:
		desc := strings.TrimSpace(d.Description)
		if desc == "" {
			errs["description"] = "描述不能为空"
		} else if len([]rune(desc)) < DescriptionMinLen {
			errs["description"] = "描述至少 20 个字符"
		}
		if !IsValidCondition(d.Condition) {
			errs["condition"] = "请选择商品成色"
		}

	case WizardStepPricing:
		if strings.TrimSpace(d.Price) == "" {
			errs["price"] = "请填写价格"
		} else if p, err := strconv.ParseFloat(d.Price, 64); err != nil || p <= 0 {
			errs["price"] = "价格无效"
		}
		if strings.TrimSpace(d.Location) == "" {
			errs["location"] = "请填写所在地区"
		}

	case WizardStepPhotos:
		// 图片为可选项；数量上限在 AddImages 阶段截断，这里无需校验
	}

	return errs
}

// AddImages 追加图片并截断到上限
// 第 11 张起静默丢弃（沿用线上 slice(0, 10) 行为），返回实际保留的新增图片
func (d *ListingDraft) AddImages(images []DraftImage) []DraftImage {
	room := MaxDraftImages - len(d.Images)
	if room <= 0 {
		return nil
	}
	if len(images) > room {
		images = images[:room]
	}
	d.Images = append(d.Images, images...)
	return images
}

// RemoveImage 按下标移除图片，返回被移除的图片
func (d *ListingDraft) RemoveImage(index int) (DraftImage, bool) {
	if index < 0 || index >= len(d.Images) {
		return DraftImage{}, false
	}
	img := d.Images[index]
	d.Images = append(d.Images[:index], d.Images[index+1:]...)
	return img, true
}

// PriceValue 解析价格，校验通过后才允许调用
func (d *ListingDraft) PriceValue() float64 {
	p, _ := strconv.ParseFloat(d.Price, 64)
	return p
}
