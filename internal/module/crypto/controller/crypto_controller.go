package controller

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/pipe199x/crypto-analytics/internal/module/crypto/service"
)

const dateLayout = "2006-01-02"

type CryptoController interface {
	GetAllCryptocurrencies(ctx *fasthttp.RequestCtx)
	GetCryptocurrencyBySymbol(ctx *fasthttp.RequestCtx)
	GetHistoricalPrices(ctx *fasthttp.RequestCtx)
	CalculateROI(ctx *fasthttp.RequestCtx)
	GetHighestVolumeCrypto(ctx *fasthttp.RequestCtx)
	CalculateCorrelation(ctx *fasthttp.RequestCtx)
	CalculateVolatility(ctx *fasthttp.RequestCtx)
	CalculateMarketDominance(ctx *fasthttp.RequestCtx)
	AnalyzePriceTrend(ctx *fasthttp.RequestCtx)
	ComparePerformance(ctx *fasthttp.RequestCtx)
}

type cryptoController struct {
	analyticsService service.AnalyticsService
	logger           zerolog.Logger
}

func NewCryptoController(analyticsService service.AnalyticsService, logger zerolog.Logger) CryptoController {
	return &cryptoController{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

func (c *cryptoController) respond(ctx *fasthttp.RequestCtx, statusCode int, data interface{}) {
	responseBody, err := json.Marshal(data)
	if err != nil {
		ctx.Error("failed to serialize response", fasthttp.StatusInternalServerError)
		return
	}

	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetBody(responseBody)
	ctx.Response.SetStatusCode(statusCode)
}

func (c *cryptoController) respondError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	c.respond(ctx, statusCode, map[string]string{"detail": message})
}

// handleError maps validation failures to 404 and everything else to 500.
func (c *cryptoController) handleError(ctx *fasthttp.RequestCtx, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.respondError(ctx, fasthttp.StatusNotFound, validationErr.Error())
		return
	}
	c.logger.Error().Err(err).Msg("request failed")
	c.respondError(ctx, fasthttp.StatusInternalServerError, err.Error())
}

func pathID(ctx *fasthttp.RequestCtx, name string) (uint64, bool) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func queryDate(ctx *fasthttp.RequestCtx, name string) (*time.Time, error) {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func queryInt(ctx *fasthttp.RequestCtx, name string, fallback int) (int, error) {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (c *cryptoController) GetAllCryptocurrencies(ctx *fasthttp.RequestCtx) {
	c.respond(ctx, fasthttp.StatusOK, c.analyticsService.GetAllCryptocurrencies())
}

func (c *cryptoController) GetCryptocurrencyBySymbol(ctx *fasthttp.RequestCtx) {
	symbol, _ := ctx.UserValue("symbol").(string)

	crypto := c.analyticsService.GetCryptocurrencyBySymbol(symbol)
	if crypto == nil {
		c.respondError(ctx, fasthttp.StatusNotFound, "Cryptocurrency not found")
		return
	}
	c.respond(ctx, fasthttp.StatusOK, crypto)
}

func (c *cryptoController) GetHistoricalPrices(ctx *fasthttp.RequestCtx) {
	cryptoID, ok := pathID(ctx, "symbol")
	if !ok {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid cryptocurrency id")
		return
	}
	startDate, err := queryDate(ctx, "start_date")
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	endDate, err := queryDate(ctx, "end_date")
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		return
	}

	prices := c.analyticsService.GetHistoricalPrices(cryptoID, startDate, endDate)
	if len(prices) == 0 {
		c.respondError(ctx, fasthttp.StatusNotFound, "No historical prices found for this cryptocurrency")
		return
	}
	c.respond(ctx, fasthttp.StatusOK, prices)
}

func (c *cryptoController) CalculateROI(ctx *fasthttp.RequestCtx) {
	cryptoID, ok := pathID(ctx, "id")
	if !ok {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid cryptocurrency id")
		return
	}

	startDate, err := time.Parse(dateLayout, string(ctx.QueryArgs().Peek("start_date")))
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, string(ctx.QueryArgs().Peek("end_date")))
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		return
	}

	result, err := c.analyticsService.CalculateROI(cryptoID, startDate, endDate)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	c.respond(ctx, fasthttp.StatusOK, result)
}

func (c *cryptoController) GetHighestVolumeCrypto(ctx *fasthttp.RequestCtx) {
	c.respond(ctx, fasthttp.StatusOK, c.analyticsService.GetHighestVolumeCrypto())
}

func (c *cryptoController) CalculateCorrelation(ctx *fasthttp.RequestCtx) {
	cryptoID1, err := strconv.ParseUint(string(ctx.QueryArgs().Peek("crypto_id_1")), 10, 64)
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid crypto_id_1")
		return
	}
	cryptoID2, err := strconv.ParseUint(string(ctx.QueryArgs().Peek("crypto_id_2")), 10, 64)
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid crypto_id_2")
		return
	}
	days, err := queryInt(ctx, "days", 7)
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid days")
		return
	}

	result, err := c.analyticsService.CalculateCorrelation(cryptoID1, cryptoID2, days)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	c.respond(ctx, fasthttp.StatusOK, result)
}

func (c *cryptoController) CalculateVolatility(ctx *fasthttp.RequestCtx) {
	results, err := c.analyticsService.CalculateVolatility()
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	c.respond(ctx, fasthttp.StatusOK, results)
}

func (c *cryptoController) CalculateMarketDominance(ctx *fasthttp.RequestCtx) {
	results, err := c.analyticsService.CalculateMarketDominance()
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	c.respond(ctx, fasthttp.StatusOK, results)
}

func (c *cryptoController) AnalyzePriceTrend(ctx *fasthttp.RequestCtx) {
	cryptoID, ok := pathID(ctx, "id")
	if !ok {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid cryptocurrency id")
		return
	}
	period, err := queryInt(ctx, "period", 3)
	if err != nil || period < 1 {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid period")
		return
	}

	result, err := c.analyticsService.AnalyzePriceTrend(cryptoID, period)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	c.respond(ctx, fasthttp.StatusOK, result)
}

func (c *cryptoController) ComparePerformance(ctx *fasthttp.RequestCtx) {
	rawIDs := ctx.QueryArgs().PeekMulti("ids")
	cryptoIDs := make([]uint64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			c.respondError(ctx, fasthttp.StatusBadRequest, "invalid ids")
			return
		}
		cryptoIDs = append(cryptoIDs, id)
	}
	period, err := queryInt(ctx, "period", 7)
	if err != nil {
		c.respondError(ctx, fasthttp.StatusBadRequest, "invalid period")
		return
	}

	results, err := c.analyticsService.ComparePerformance(cryptoIDs, period)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	c.respond(ctx, fasthttp.StatusOK, results)
}
