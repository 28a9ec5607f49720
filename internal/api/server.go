package api

import "github.com/RoyceAzure/lab/marketplace/internal/api/handler"

type Server struct {
	CartHandler        *handler.CartHandler
	CouponHandler      *handler.CouponHandler
	OrderHandler       *handler.OrderHandler
	FulfillmentHandler *handler.FulfillmentHandler
	ShippingHandler    *handler.ShippingHandler
	HealthHandler      *handler.HealthHandler
}

func NewServer(
	cartHandler *handler.CartHandler,
	couponHandler *handler.CouponHandler,
	orderHandler *handler.OrderHandler,
	fulfillmentHandler *handler.FulfillmentHandler,
	shippingHandler *handler.ShippingHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	return &Server{
		CartHandler:        cartHandler,
		CouponHandler:      couponHandler,
		OrderHandler:       orderHandler,
		FulfillmentHandler: fulfillmentHandler,
		ShippingHandler:    shippingHandler,
		HealthHandler:      healthHandler,
	}
}
