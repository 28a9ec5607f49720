package dto

import (
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
)

type CheckoutRequest struct {
	DeliveryAddress  model.DeliveryAddress `json:"deliveryAddress" validate:"required"`
	PaymentMethod    string                `json:"paymentMethod" validate:"omitempty,max=30"`
	ShippingMethod   string                `json:"shippingMethod" validate:"required,oneof=standard express pickup"`
	PickupLocationID *uint                 `json:"pickupLocationId" validate:"omitempty,min=1"`
}

type UpdateItemStatusRequest struct {
	Status string `json:"status" validate:"required,max=20"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
