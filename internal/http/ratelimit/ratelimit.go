package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxTrackedIPs = 10000

// IPRateLimiter applies a token-bucket limit per client IP. Forwarding
// headers are only honored when the direct peer is a trusted proxy.
type IPRateLimiter struct {
	mu             sync.Mutex
	buckets        map[string]*bucket
	rate           rate.Limit
	burst          int
	idleTTL        time.Duration
	trustedProxies []*net.IPNet
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter builds a limiter allowing r requests per second with the
// given burst. Buckets idle for longer than idleTTL are dropped by a
// background sweep. trustedProxies lists CIDR ranges (or single IPs) of
// reverse proxies whose X-Forwarded-For / X-Real-IP headers are believed.
func NewIPRateLimiter(r rate.Limit, burst int, idleTTL time.Duration, trustedProxies []string) *IPRateLimiter {
	l := &IPRateLimiter{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   burst,
		idleTTL: idleTTL,
	}

	for _, entry := range trustedProxies {
		_, ipnet, err := net.ParseCIDR(entry)
		if err != nil {
			if ip := net.ParseIP(entry); ip != nil {
				if ip.To4() != nil {
					_, ipnet, _ = net.ParseCIDR(entry + "/32")
				} else {
					_, ipnet, _ = net.ParseCIDR(entry + "/128")
				}
			}
		}
		if ipnet != nil {
			l.trustedProxies = append(l.trustedProxies, ipnet)
		}
	}

	go l.sweep()

	return l
}

// Allow reports whether a request from ip may proceed.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		if len(l.buckets) >= maxTrackedIPs {
			l.evictOldestLocked()
		}
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()

	return b.limiter.Allow()
}

func (l *IPRateLimiter) evictOldestLocked() {
	var oldestIP string
	var oldest time.Time

	for ip, b := range l.buckets {
		if oldestIP == "" || b.lastSeen.Before(oldest) {
			oldestIP = ip
			oldest = b.lastSeen
		}
	}

	if oldestIP != "" {
		delete(l.buckets, oldestIP)
	}
}

func (l *IPRateLimiter) sweep() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.idleTTL * 2)
		l.mu.Lock()
		for ip, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects over-limit requests with 429.
func (l *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(l.ClientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the address to rate-limit on. The leftmost
// X-Forwarded-For entry is the original client; it is only trusted when the
// direct peer is a configured proxy.
func (l *IPRateLimiter) ClientIP(r *http.Request) string {
	remoteIP := parseIP(r.RemoteAddr)

	if len(l.trustedProxies) > 0 {
		trusted := false
		for _, ipnet := range l.trustedProxies {
			if ipnet.Contains(remoteIP) {
				trusted = true
				break
			}
		}
		if !trusted {
			return remoteIP.String()
		}
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if parsed := net.ParseIP(first); parsed != nil {
			return parsed.String()
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if parsed := net.ParseIP(xri); parsed != nil {
			return parsed.String()
		}
	}

	return remoteIP.String()
}

func parseIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
