package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/speaker_booking/internal/ratelimit"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("invalid admin credentials")
	ErrRateLimited  = errors.New("too many failed attempts")
)

// Result итог проверки пароля
type Result struct {
	Valid  bool
	Status ratelimit.Status
}

// Gate проверяет пароль админа с учётом лимита попыток.
// Сессий нет: пароль проверяется на каждом запросе.
type Gate struct {
	secret  []byte
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewGate создаёт проверку для статического пароля
func NewGate(secret string, limiter *ratelimit.Limiter, logger *zap.Logger) *Gate {
	return &Gate{
		secret:  []byte(secret),
		limiter: limiter,
		logger:  logger,
	}
}

// Authenticate сверяет bearer-пароль клиента clientID.
// Заблокированному клиенту отказывает без проверки пароля.
func (g *Gate) Authenticate(bearer, clientID string) (Result, error) {
	// Проверка и статус берутся за одну блокировку лимитера
	if st := g.limiter.Status(clientID); st.Blocked {
		return Result{Status: st}, fmt.Errorf("%w: retry in %s", ErrRateLimited, ratelimit.HumanizeDuration(st.BlockDuration))
	}

	valid := g.matches(bearer)
	st := g.limiter.RecordAttempt(clientID, valid)
	res := Result{Valid: valid, Status: st}

	if valid {
		return res, nil
	}

	g.logger.Warn("Admin authentication failed",
		zap.String("client_ip", clientID),
		zap.Int("remaining_attempts", st.RemainingAttempts),
		zap.Bool("locked", st.Blocked),
	)

	if st.Blocked {
		return res, fmt.Errorf("%w: retry in %s", ErrRateLimited, ratelimit.HumanizeDuration(st.BlockDuration))
	}
	return res, ErrUnauthorized
}

func (g *Gate) matches(bearer string) bool {
	if len(g.secret) == 0 || bearer == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(bearer), g.secret) == 1
}

// BearerToken извлекает токен из заголовка Authorization
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
