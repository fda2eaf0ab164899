package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	JWTSecret      []byte
	RequestTimeout time.Duration
	Registry       *prometheus.Registry
}

// NewRouter wires the REST surface. Everything under /api requires a valid
// bearer token; the status transition additionally requires the admin role.
func NewRouter(
	cfg RouterConfig,
	checkout *CheckoutHandler,
	orders *OrdersHandler,
	carts *CartHandler,
	products *ProductHandler,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/checkout", checkout.Checkout)
			r.Get("/user-orders", orders.ListUserOrders)
			r.Get("/{order_id}", orders.GetOrder)
			r.With(RequireAdmin).Put("/{order_id}/status", orders.UpdateStatus)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Post("/add", carts.AddItem)
			r.Put("/update/{product_id}", carts.UpdateQuantity)
			r.Delete("/remove/{product_id}", carts.RemoveItem)
			r.Delete("/clear", carts.ClearCart)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Get("/{product_id}", products.GetProduct)
		})
	})

	return r
}
