package market

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signet/internal/ratelimit"
	"signet/pkg/core"
)

var normalizer = NewNormalizer()

// FetchKlineHistory returns K-lines for q. The fallback is an empty slice.
func (c *Client) FetchKlineHistory(ctx context.Context, q KlineQuery) core.Result[[]core.Kline] {
	return execute(ctx, c, core.OpGetKlines, []core.Kline{},
		func() (core.Params, error) { return buildKlineParams(q) },
		func(env *core.Envelope) ([]core.Kline, error) {
			return normalizer.NormalizeKlines(env.Data, q.Symbol)
		})
}

// Fetch24hTicker returns 24h statistics for symbol. The fallback is nil.
func (c *Client) Fetch24hTicker(ctx context.Context, symbol string) core.Result[*core.Ticker] {
	return execute(ctx, c, core.OpGetTicker, (*core.Ticker)(nil),
		func() (core.Params, error) { return buildTickerParams(symbol) },
		func(env *core.Envelope) (*core.Ticker, error) {
			return normalizer.NormalizeTicker(env.Data, symbol)
		})
}

// FetchMarketDepth returns an order-book snapshot. The fallback has empty,
// non-nil sides.
func (c *Client) FetchMarketDepth(ctx context.Context, q DepthQuery) core.Result[core.Depth] {
	return execute(ctx, c, core.OpGetDepth, core.EmptyDepth(),
		func() (core.Params, error) { return buildDepthParams(q) },
		func(env *core.Envelope) (core.Depth, error) {
			return normalizer.NormalizeDepth(env.Data)
		})
}

// FetchRecentTrades returns the latest public trades. The fallback is an
// empty slice.
func (c *Client) FetchRecentTrades(ctx context.Context, q TradesQuery) core.Result[[]core.Trade] {
	return execute(ctx, c, core.OpGetTrades, []core.Trade{},
		func() (core.Params, error) { return buildTradesParams(q) },
		func(env *core.Envelope) ([]core.Trade, error) {
			return normalizer.NormalizeTrades(env.Data, q.Symbol)
		})
}

// checkShape requires an array payload for list operations and an object
// otherwise. null matches neither.
func checkShape(op core.Operation, env *core.Envelope) error {
	if op.ReturnsList() {
		if !env.DataIsArray() {
			return errors.New("unexpected data shape, want array")
		}
		return nil
	}
	if !env.DataIsObject() {
		return errors.New("unexpected data shape, want object")
	}
	return nil
}

// execute runs one signed GET and folds every failure into the fallback.
// fallback is returned as is, so it must not be shared mutable state.
func execute[T any](
	ctx context.Context,
	c *Client,
	op core.Operation,
	fallback T,
	build func() (core.Params, error),
	decode func(env *core.Envelope) (T, error),
) (res core.Result[T]) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := c.logger.With().
		Str("operation", op.String()).
		Str("path", op.Path()).
		Str("request_id", requestID).
		Logger()

	var unsigned bool
	fail := func(me *core.MarketError) core.Result[T] {
		me.RequestID = requestID
		logFailure(logger, me)
		c.metrics.observe(op, me, time.Since(start))
		r := core.Degrade(fallback, me)
		r.RequestID = requestID
		r.Unsigned = unsigned
		return r
	}

	defer func() {
		if p := recover(); p != nil {
			res = fail(core.NewMarketError(op, core.ErrorTypeUnknown, "panic during request",
				fmt.Errorf("%v", p)))
		}
	}()

	params, err := build()
	if err != nil {
		return fail(core.NewMarketError(op, core.ErrorTypeBadRequest, "invalid parameters", err))
	}

	if err := c.throttle(ctx, op); err != nil {
		return fail(core.NewMarketError(op, core.ErrorTypeRateLimit, "throttled by rate limiter", err))
	}

	if c.circuitBreaker != nil && !c.circuitBreaker.Allow() {
		return fail(core.NewMarketError(op, core.ErrorTypeCircuitOpen, "request not sent", core.ErrCircuitOpen))
	}

	signed := c.signer.Stamp(params, c.creds.Credential())
	unsigned = signed.Unsigned()

	req := core.NewGetRequest(op).
		SetQueryParams(signed.Params).
		SetRequestID(requestID)

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		c.recordBreaker(false)
		return fail(classifyTransportError(op, err))
	}
	c.recordBreaker(resp.IsSuccess())

	if !resp.IsSuccess() {
		me := core.NewMarketError(op, core.ErrorTypeServerError, "unexpected http status", nil)
		me.HTTPStatus = resp.StatusCode
		return fail(me)
	}

	env, err := core.DecodeEnvelope(resp.Body)
	if err != nil {
		me := core.NewMarketError(op, core.ErrorTypeDecode, "invalid response envelope", err)
		me.HTTPStatus = resp.StatusCode
		return fail(me)
	}

	if !env.IsSuccess() {
		me := core.NewMarketError(op, core.ErrorTypeApplication, env.Msg, nil)
		me.HTTPStatus = resp.StatusCode
		me.Code = env.Code
		return fail(me)
	}

	if err := checkShape(op, env); err != nil {
		me := core.NewMarketError(op, core.ErrorTypeDecode, "invalid response data", err)
		me.HTTPStatus = resp.StatusCode
		me.Code = env.Code
		return fail(me)
	}

	value, err := decode(env)
	if err != nil {
		me := core.NewMarketError(op, core.ErrorTypeDecode, "invalid response data", err)
		me.HTTPStatus = resp.StatusCode
		me.Code = env.Code
		return fail(me)
	}

	c.metrics.observe(op, nil, time.Since(start))
	logger.Debug().
		Bool("unsigned", unsigned).
		Dur("elapsed", time.Since(start)).
		Msg("market data request completed")

	res = core.Succeed(value)
	res.RequestID = requestID
	res.Unsigned = unsigned
	return res
}

func (c *Client) throttle(ctx context.Context, op core.Operation) error {
	if !c.nonBlocking {
		return c.rateLimiter.Wait(ctx, op)
	}
	if !c.rateLimiter.Allow(op) {
		return fmt.Errorf("rate limit %s: %w", op, ratelimit.ErrLimited)
	}
	return nil
}

func (c *Client) recordBreaker(success bool) {
	if c.circuitBreaker != nil {
		c.circuitBreaker.Record(success)
	}
}

func classifyTransportError(op core.Operation, err error) *core.MarketError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return core.NewMarketError(op, core.ErrorTypeTimeout, "request timed out", err)
	}
	return core.NewMarketError(op, core.ErrorTypeNetwork, "request failed", err)
}

func logFailure(logger zerolog.Logger, me *core.MarketError) {
	event := logger.Warn().
		Str("error_type", me.Type.String())
	if me.HTTPStatus != 0 {
		event = event.Int("http_status", me.HTTPStatus)
	}
	if me.Code != 0 {
		event = event.Int("code", me.Code)
	}
	event.Err(me).Msg("market data request degraded to fallback")
}
