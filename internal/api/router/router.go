package router

import (
	"github.com/RoyceAzure/lab/marketplace/internal/api"
	m "github.com/RoyceAzure/lab/marketplace/internal/api/middleware"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func SetupRouter(server *api.Server, limiter ratelimit.Limiter, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware)
	r.Use(m.IdentityMiddleware)

	limited := m.NewRateLimitMiddleware(limiter)

	r.Get("/healthz", server.HealthHandler.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		// 購物車，訪客也可以使用
		r.Route("/cart", func(r chi.Router) {
			r.Use(m.GuestSessionMiddleware)
			r.Get("/", server.CartHandler.GetCart)
			r.With(limited).Post("/", server.CartHandler.AddItem)
			r.Patch("/item/{productId}", server.CartHandler.UpdateItem)
			r.Delete("/item/{productId}", server.CartHandler.RemoveItem)
			r.Delete("/clear", server.CartHandler.Clear)
			r.With(m.AuthMiddleware).Post("/merge", server.CartHandler.Merge)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.With(m.GuestSessionMiddleware).Post("/validate", server.CouponHandler.Validate)
			r.With(m.GuestSessionMiddleware, limited).Post("/apply", server.CouponHandler.Apply)
			r.With(m.RequireRole(constants.RoleAdmin)).Post("/", server.CouponHandler.Create)
		})

		r.Route("/orders", func(r chi.Router) {
			// 金流回呼不帶身分，靠簽章驗證
			r.Post("/webhook", server.OrderHandler.Webhook)
			r.With(limited).Get("/verify/{reference}", server.OrderHandler.Verify)

			r.Group(func(r chi.Router) {
				r.Use(m.AuthMiddleware)
				r.With(limited).Post("/checkout-session", server.OrderHandler.CheckoutSession)
				r.Get("/{orderNumber}", server.OrderHandler.GetOrder)
				r.Patch("/{orderNumber}/cancel", server.OrderHandler.Cancel)
			})
		})

		r.With(m.AuthMiddleware).Patch("/order-items/{id}/status", server.FulfillmentHandler.UpdateItemStatus)
		r.With(m.RequireRole(constants.RoleAdmin)).Patch("/shipping-settings/{id}/activate", server.ShippingHandler.Activate)
	})
	return r
}
