package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var log logrus.FieldLogger = logrus.StandardLogger().WithField("component", "security")

// SetLogger replaces the logger used by the middleware package
func SetLogger(l logrus.FieldLogger) {
	log = l
}

// RateLimiter implements token bucket rate limiting per IP
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
}

// NewRateLimiter creates a rate limiter allowing limit requests per second per IP
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// GetLimiter gets or creates a limiter for an IP address
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[ip]; exists {
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// RateLimitMiddleware enforces rate limiting per IP
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			log.WithField("ip", ip).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 1,
			})
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// CORSMiddleware allows cross-origin reads from the configured origins.
// An empty list allows any origin; entries without a scheme match on host.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")

		if origin != "" && OriginAllowed(origin, allowedOrigins) {
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// OriginAllowed reports whether origin matches one of allowedOrigins
func OriginAllowed(origin string, allowedOrigins []string) bool {
	if len(allowedOrigins) == 0 {
		return true
	}
	for _, o := range allowedOrigins {
		trimmed := strings.TrimRight(strings.TrimSpace(o), "/")
		if trimmed == "" {
			continue
		}
		if trimmed == "*" || origin == trimmed {
			return true
		}
		if !strings.Contains(trimmed, "://") {
			if parsed, err := url.Parse(origin); err == nil && parsed.Host == trimmed {
				return true
			}
		}
	}
	return false
}

// IPAllowlist restricts access to listed IPs. Loopback is always allowed.
type IPAllowlist struct {
	ips map[string]bool
}

// NewIPAllowlist creates an allowlist; an empty list allows everyone
func NewIPAllowlist(ips []string) *IPAllowlist {
	al := &IPAllowlist{ips: make(map[string]bool)}
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			al.ips[ip] = true
		}
	}
	return al
}

// IsAllowed checks if an IP is on the list
func (al *IPAllowlist) IsAllowed(ip string) bool {
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return true
	}
	if len(al.ips) == 0 {
		return true
	}
	return al.ips[ip]
}

// IPAllowlistMiddleware rejects clients that are not on the allowlist
func IPAllowlistMiddleware(allowlist *IPAllowlist) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !allowlist.IsAllowed(ip) {
			log.WithField("ip", ip).Warn("Access denied for IP not on allowlist")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// SecurityLogger logs authentication events
type SecurityLogger struct {
	log logrus.FieldLogger
}

// NewSecurityLogger creates a security logger writing through l
func NewSecurityLogger(l logrus.FieldLogger) *SecurityLogger {
	return &SecurityLogger{log: l.WithField("component", "security")}
}

// LogFailedAuth logs failed authentication attempts
func (sl *SecurityLogger) LogFailedAuth(ip string, reason string) {
	sl.log.WithFields(logrus.Fields{"ip": ip, "reason": reason}).Warn("Failed authentication")
}

// LogWebSocketConnected logs successful websocket connections
func (sl *SecurityLogger) LogWebSocketConnected(ip string, agent string) {
	sl.log.WithFields(logrus.Fields{"ip": ip, "agent": agent}).Info("WebSocket connected")
}

// LogWebSocketDisconnected logs websocket disconnections
func (sl *SecurityLogger) LogWebSocketDisconnected(ip string, clientID string) {
	sl.log.WithFields(logrus.Fields{"ip": ip, "client": clientID}).Info("WebSocket disconnected")
}

// ValidateTokenFormat checks that token looks like a compact JWT
func ValidateTokenFormat(token string) bool {
	if len(token) < 20 || len(token) > 4096 {
		return false
	}
	return strings.Count(token, ".") == 2
}

// ValidateAgentName checks that a token subject is safe to log and embed
func ValidateAgentName(name string) bool {
	if len(name) < 1 || len(name) > 255 {
		return false
	}

	for _, c := range name {
		if !((c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.') {
			return false
		}
	}

	return true
}
