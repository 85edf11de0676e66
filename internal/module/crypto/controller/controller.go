package controller

import (
	"github.com/rs/zerolog"

	"github.com/pipe199x/crypto-analytics/internal/module/crypto/service"
)

type Controller struct {
	Crypto CryptoController
}

func NewController(analyticsService service.AnalyticsService, logger zerolog.Logger) *Controller {
	return &Controller{
		Crypto: NewCryptoController(analyticsService, logger),
	}
}
