package models

// AssetPatch holds the editable asset fields. Nil fields are left untouched.
type AssetPatch struct {
	Product  *string   `json:"product"`
	Type     *string   `json:"type"`
	Quantity *Quantity `json:"quantity"`
	Date     *string   `json:"date"`
}

// CustomRequestPatch holds the fields a requester may edit on a custom request.
type CustomRequestPatch struct {
	Asset  *string  `json:"asset"`
	Type   *string  `json:"type"`
	Price  *float64 `json:"price"`
	Why    *string  `json:"why"`
	AdInfo *string  `json:"adinfo"`
	Image  *string  `json:"image"`
	Date   *string  `json:"date"`
}
