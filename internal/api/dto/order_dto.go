package dto

// ShipRequest 发货请求（运单信息可选）
type ShipRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}
