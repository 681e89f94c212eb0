package types

// ShippingInfo is copied onto an order at creation and never edited afterwards.
type ShippingInfo struct {
	RecipientName string `json:"recipient_name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	AddressLine   string `json:"address_line" validate:"required"`
	City          string `json:"city" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	Country       string `json:"country" validate:"required"`
}
