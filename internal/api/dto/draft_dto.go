package dto

// UpdateDraftRequest 草稿字段更新（指针字段区分「未传」和「清空」）
type UpdateDraftRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	CategoryID  *string `json:"category_id"`
	Condition   *string `json:"condition"`
	Location    *string `json:"location"`
	ListingType *string `json:"listing_type"`
}

// AddImagesResult 图片上传结果
type AddImagesResult struct {
	Retained int         `json:"retained"` // 实际保留张数（超出上限的被丢弃）
	Wizard   interface{} `json:"wizard"`
}
