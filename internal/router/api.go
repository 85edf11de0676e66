package router

import (
	"github.com/pipe199x/crypto-analytics/internal/module/crypto"
)

type Router struct {
	CryptoRouter *crypto.CryptoRouter
}

func NewRouter(
	cryptoRouter *crypto.CryptoRouter,
) *Router {
	return &Router{
		CryptoRouter: cryptoRouter,
	}
}

// Register routes
func (r *Router) Register() {
	// Register routes of modules
	r.CryptoRouter.RegisterCryptoRoutes()
}
