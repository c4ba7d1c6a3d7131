package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vyzio_web_v1_202608/internal/api/dto"
	"vyzio_web_v1_202608/internal/middleware"
	"vyzio_web_v1_202608/internal/service"
	"vyzio_web_v1_202608/pkg/vyzio"
)

// 单张上传图片大小上限 10MB
const maxImageBytes = 10 << 20

// ==================== 控制器 ====================

// WizardController 发布向导控制器
type WizardController struct {
	wizardService *service.WizardService
}

func NewWizardController(wizardService *service.WizardService) *WizardController {
	return &WizardController{wizardService: wizardService}
}

// ==================== API 方法 ====================

// Start 开始发布向导
// @Summary 新建发布向导会话
// @Tags Wizard
// @Produce json
// @Success 201 {object} service.WizardState
// @Router /api/wizard [post]
func (ctrl *WizardController) Start(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	state := ctrl.wizardService.Start(c.Request.Context(), sess)

	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    state,
	})
}

// State 向导当前状态
// @Summary 获取向导快照
// @Tags Wizard
// @Param id path string true "向导ID"
// @Success 200 {object} service.WizardState
// @Router /api/wizard/{id} [get]
func (ctrl *WizardController) State(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	state, err := ctrl.wizardService.State(sess, c.Param("id"))
	if err != nil {
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    state,
	})
}

// Update 更新草稿字段
// @Summary 更新草稿字段（任意步骤可调用）
// @Tags Wizard
// @Accept json
// @Param id path string true "向导ID"
// @Param body body dto.UpdateDraftRequest true "字段更新"
// @Success 200 {object} service.WizardState
// @Router /api/wizard/{id} [patch]
func (ctrl *WizardController) Update(c *gin.Context) {
	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	sess := middleware.CurrentSession(c)
	state, err := ctrl.wizardService.UpdateFields(sess, c.Param("id"), service.FieldPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Condition:   req.Condition,
		Location:    req.Location,
		ListingType: req.ListingType,
	})
	if err != nil {
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    state,
	})
}

// Next 前进一步
// @Summary 校验当前步骤并前进
// @Tags Wizard
// @Param id path string true "向导ID"
// @Success 200 {object} service.WizardState
// @Router /api/wizard/{id}/next [post]
func (ctrl *WizardController) Next(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	state, err := ctrl.wizardService.Next(sess, c.Param("id"))
	if err != nil {
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    state,
	})
}

// Prev 回退一步
// @Summary 回退一步（不校验）
// @Tags Wizard
// @Param id path string true "向导ID"
// @Success 200 {object} service.WizardState
// @Router /api/wizard/{id}/prev [post]
func (ctrl *WizardController) Prev(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	state, err := ctrl.wizardService.Prev(sess, c.Param("id"))
	if err != nil {
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    state,
	})
}

// AddImages 上传图片
// @Summary 上传图片到草稿（multipart，字段名 images）
// @Tags Wizard
// @Accept mpfd
// @Param id path string true "向导ID"
// @Success 200 {object} dto.AddImagesResult
// @Router /api/wizard/{id}/images [post]
func (ctrl *WizardController) AddImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "multipart 解析失败: " + err.Error(),
		})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "缺少 images 文件",
		})
		return
	}

	uploads := make([]service.ImageUpload, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxImageBytes {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "图片过大: " + fh.Filename,
			})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "读取上传文件失败: " + err.Error(),
			})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "读取上传文件失败: " + err.Error(),
			})
			return
		}
		uploads = append(uploads, service.ImageUpload{
			Data:        data,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	sess := middleware.CurrentSession(c)
	state, retained, err := ctrl.wizardService.AddImages(c.Request.Context(), sess, c.Param("id"), uploads)
	if err != nil {
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": dto.AddImagesResult{
			Retained: retained,
			Wizard:   state,
		},
	})
}

// RemoveImage 删除图片
// @Summary 按下标删除草稿图片
// @Tags Wizard
// @Param id path string true "向导ID"
// @Param index path int true "图片下标"
// @Success 200 {object} service.WizardState
// @Router /api/wizard/{id}/images/{index} [delete]
func (ctrl *WizardController) RemoveImage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的图片下标",
		})
		return
	}

	sess := middleware.CurrentSession(c)
	state, err := ctrl.wizardService.RemoveImage(c.Request.Context(), sess, c.Param("id"), index)
	if err != nil {
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    state,
	})
}

// Submit 提交发布
// @Summary 提交草稿并发布刊登
// @Tags Wizard
// @Param id path string true "向导ID"
// @Success 201 {object} model.Listing
// @Router /api/wizard/{id}/submit [post]
func (ctrl *WizardController) Submit(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	listing, err := ctrl.wizardService.Submit(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"code":    422,
				"message": "表单校验未通过",
				"data":    gin.H{"errors": vErr.Fields},
			})
			return
		}
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    listing,
	})
}

// Close 关闭向导
// @Summary 关闭向导并丢弃草稿
// @Tags Wizard
// @Param id path string true "向导ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/wizard/{id} [delete]
func (ctrl *WizardController) Close(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if err := ctrl.wizardService.Close(c.Request.Context(), sess, c.Param("id")); err != nil {
		respondWizardErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
	})
}

// ==================== 错误映射 ====================

// respondWizardErr 把向导错误映射到 HTTP 状态码
func respondWizardErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWizardNotFound), errors.Is(err, service.ErrWizardClosed):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{
			"code":    409,
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrPublishBlocked), errors.Is(err, service.ErrNotLastStep):
		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": err.Error(),
		})
	case errors.Is(err, vyzio.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "会话已过期，请重新登录",
		})
	default:
		status := http.StatusBadGateway
		if apiErr, ok := err.(*vyzio.APIError); ok && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		c.JSON(status, gin.H{
			"code":    status,
			"message": err.Error(),
		})
	}
}
