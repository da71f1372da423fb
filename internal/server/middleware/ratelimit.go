package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает частоту запросов с одного IP (token bucket на x/time/rate)
type RateLimiter struct {
	visitors map[string]*visitor
	logger   *slog.Logger
	trusted  []netip.Prefix
	metrics  *Metrics
	now      func() time.Time
	stopC    chan struct{}
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	mu       sync.Mutex
	stopOnce sync.Once
}

// visitor лимитер конкретного IP
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создает лимитер на perMinute запросов в минуту с одного IP.
// Всплеск допускается в размере perMinute запросов.
func NewRateLimiter(perMinute int, logger *slog.Logger, metrics *Metrics) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
		stopC:    make(chan struct{}),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		idleTTL:  5 * time.Minute,
	}

	// Периодически удаляем неактивных посетителей
	go rl.cleanup()

	return rl
}

// TrustProxies задает адреса прокси, которым разрешено передавать
// X-Forwarded-For и X-Real-IP. Вызывается до начала обслуживания.
func (rl *RateLimiter) TrustProxies(prefixes []netip.Prefix) {
	rl.trusted = prefixes
}

// Allow проверяет, разрешен ли запрос для ключа
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// Stop останавливает фоновую очистку
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopC) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.removeIdle()
		case <-rl.stopC:
			return
		}
	}
}

// removeIdle удаляет посетителей, не приходивших дольше idleTTL
func (rl *RateLimiter) removeIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.visitors, key)
		}
	}
}

// visitorsCount количество отслеживаемых IP
func (rl *RateLimiter) visitorsCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware отклоняет запросы сверх лимита с 429 и Retry-After
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r, rl.trusted)
		if !rl.Allow(ip) {
			rl.metrics.rateLimited()
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
				slog.String("request_id", RequestID(r.Context())),
			)
			w.Header().Set("Retry-After", "60")
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP извлекает IP клиента. Заголовки прокси учитываются,
// только если соединение пришло от доверенного прокси.
func getClientIP(r *http.Request, trusted []netip.Prefix) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !isTrusted(remote, trusted) {
		return remote
	}

	// Справа налево: первый адрес не из доверенных прокси и есть клиент
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !isTrusted(hop, trusted) {
				return hop
			}
		}
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return remote
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
