package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-social-shop/internal/http/handlers"
	"github.com/pribylovaa/go-social-shop/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger       *slog.Logger
	Timeout      time.Duration
	BasePath     string // например, "/api"; если пустой — роуты регистрируются на корне.
	PaymentKeyID string // публичный ключ шлюза для клиентского виджета оплаты
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.ShopService, parser middleware.TokenParser, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // счётчики по шаблону маршрута
		middleware.Auth(parser),         // актор из Bearer-токена; без токена запрос анонимный
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, opts.PaymentKeyID)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// comments
	r.Get("/threads/{thread_id}/comments", h.ListTopLevelComments)
	r.Post("/threads/{thread_id}/comments", h.CreateComment)
	r.Post("/threads/{thread_id}/comments/{id}/replies", h.ReplyToComment)
	r.Delete("/threads/{thread_id}/comments/{id}", h.DeleteComment)

	// products
	r.Get("/products/{id}", h.GetProduct)

	// cart
	r.Get("/cart", h.GetCart)
	r.Delete("/cart", h.ClearCart)
	r.Put("/cart/items/{product_id}", h.UpsertCartLine)
	r.Delete("/cart/items/{product_id}", h.RemoveCartLine)

	// checkout
	r.Post("/checkout/intent", h.CreatePaymentIntent)
	r.Post("/checkout/verify", h.VerifyPayment)

	// orders
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)

	// admin: роль проверяет сервисный слой
	r.Route("/admin", func(r chi.Router) {
		r.Post("/products", h.CreateProduct)
		r.Patch("/orders/{id}", h.UpdateOrder)
	})
}
