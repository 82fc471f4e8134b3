package controller

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/auth"
	"github.com/Freeeeeet/speaker_booking/internal/ratelimit"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// AccessLog пишет по строке на каждый запрос
func AccessLog(logger *zap.Logger) iris.Handler {
	return func(ctx iris.Context) {
		start := time.Now()
		ctx.Next()

		logger.Info("HTTP request",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", ctx.GetStatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.RemoteAddr()),
		)
	}
}

// RequireAdmin проверяет пароль админа из заголовка Authorization с учётом лимита попыток
func (h *Handlers) RequireAdmin(ctx iris.Context) {
	bearer := auth.BearerToken(ctx.GetHeader("Authorization"))

	res, err := h.gate.Authenticate(bearer, ctx.RemoteAddr())
	switch {
	case err == nil:
		ctx.Next()
	case errors.Is(err, auth.ErrRateLimited):
		remaining := res.Status.BlockDuration
		ctx.Header("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
		ctx.StatusCode(iris.StatusTooManyRequests)
		_ = ctx.JSON(iris.Map{
			"error":              "rate_limited",
			"message":            "Too many failed attempts. Try again in " + ratelimit.HumanizeDuration(remaining),
			"remainingBlockTime": ratelimit.HumanizeDuration(remaining),
		})
		ctx.StopExecution()
	case errors.Is(err, auth.ErrUnauthorized):
		ctx.StatusCode(iris.StatusUnauthorized)
		_ = ctx.JSON(iris.Map{
			"error":             "unauthorized",
			"message":           "Invalid admin password",
			"remainingAttempts": res.Status.RemainingAttempts,
		})
		ctx.StopExecution()
	default:
		h.logger.Error("Admin authentication error", zap.Error(err))
		writeError(ctx, iris.StatusInternalServerError, "internal_error", "Something went wrong, please try again later")
		ctx.StopExecution()
	}
}
