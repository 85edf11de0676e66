package crypto

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/pipe199x/crypto-analytics/internal/application"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/controller"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/repository"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/service"
)

// struct of CryptoRouter
type CryptoRouter struct {
	App        *application.Application
	Controller *controller.Controller
	Logger     zerolog.Logger
}

// register bulky of crypto module
var NewCryptoModule = fx.Options(
	// register repository of crypto module
	fx.Provide(repository.NewCryptoRepository),

	fx.Provide(service.NewCoinGeckoService),
	fx.Provide(service.NewEtlService),
	fx.Provide(service.NewAnalyticsService),

	// register controller of crypto module
	fx.Provide(controller.NewController),

	fx.Provide(NewCryptoRouter),
)

// init CryptoRouter
func NewCryptoRouter(app *application.Application, controller *controller.Controller, logger zerolog.Logger) *CryptoRouter {
	return &CryptoRouter{
		App:        app,
		Controller: controller,
		Logger:     logger,
	}
}

// register routes of crypto module
func (_i *CryptoRouter) RegisterCryptoRoutes() {
	cryptoController := _i.Controller.Crypto

	// analysis routes are static and must win over the {symbol} wildcard
	_i.App.Router.GET("/crypto", cryptoController.GetAllCryptocurrencies)
	_i.App.Router.GET("/crypto/analysis/roi/{id}", cryptoController.CalculateROI)
	_i.App.Router.GET("/crypto/analysis/volume", cryptoController.GetHighestVolumeCrypto)
	_i.App.Router.GET("/crypto/analysis/correlation", cryptoController.CalculateCorrelation)
	_i.App.Router.GET("/crypto/analysis/volatility", cryptoController.CalculateVolatility)
	_i.App.Router.GET("/crypto/analysis/market-dominance", cryptoController.CalculateMarketDominance)
	_i.App.Router.GET("/crypto/analysis/trend/{id}", cryptoController.AnalyzePriceTrend)
	_i.App.Router.GET("/crypto/analysis/comparison", cryptoController.ComparePerformance)
	_i.App.Router.GET("/crypto/{symbol}", cryptoController.GetCryptocurrencyBySymbol)
	_i.App.Router.GET("/crypto/{symbol}/history", cryptoController.GetHistoricalPrices)
}
