package server

import (
	"context"
	"net/http"

	"barkeep/internal/handlers"
	applog "barkeep/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/logout", handlers.Logout)
	mux.Handle("/api/stock", handlers.RequireAuthentication(http.HandlerFunc(handlers.StockResource)))
	mux.Handle("/api/stock/", handlers.RequireAuthentication(http.HandlerFunc(handlers.StockResource)))
	mux.Handle("/api/drinks", handlers.RequireAuthentication(http.HandlerFunc(handlers.DrinkResource)))
	mux.Handle("/api/drinks/", handlers.RequireAuthentication(http.HandlerFunc(handlers.DrinkResource)))
	mux.Handle("/api/shopping", handlers.RequireAuthentication(http.HandlerFunc(handlers.ShoppingResource)))
	mux.Handle("/api/shopping/", handlers.RequireAuthentication(http.HandlerFunc(handlers.ShoppingResource)))
	// Orders stay outside the auth wrapper: guests place and poll them
	// anonymously, and the handler gates host-only actions itself.
	mux.HandleFunc("/api/orders", handlers.OrderResource)
	mux.HandleFunc("/api/orders/", handlers.OrderResource)
	applog.Debug(context.Background(), "routes registered")
	return mux
}
