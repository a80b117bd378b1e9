package api

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/descope/go-sdk/descope"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rpupo63/portfolio-backend/cache"
	"github.com/rpupo63/portfolio-backend/errs"
)

// sessionValidator is the part of the Descope auth client the middleware uses.
type sessionValidator interface {
	ValidateSessionWithToken(ctx context.Context, sessionToken string) (bool, *descope.Token, error)
}

// descopeSessionCookie is the cookie the Descope web SDK stores the session in.
const descopeSessionCookie = "DS"

type authMiddleware struct {
	responder Responder
	logger    zerolog.Logger
	jwtSecret []byte
	descope   sessionValidator
	loginURL  string
	// open lets every request through; only used in development without auth configured.
	open bool
}

func newAuthMiddleware(jwtSecret string, descopeAuth sessionValidator, loginURL string, open bool) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	if open {
		logger.Warn().Msg("admin authentication disabled: no AUTH_JWT_SECRET or DESCOPE_PROJECT_ID in development")
	}
	if loginURL == "" {
		loginURL = "/login"
	}
	return authMiddleware{
		responder: NewResponder(logger, nil),
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
		descope:   descopeAuth,
		loginURL:  loginURL,
		open:      open,
	}
}

func sessionToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie(descopeSessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// authenticate accepts a Descope session when Descope is configured and falls
// back to an HS256 JWT signed with AUTH_JWT_SECRET.
func (m authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.open {
			next.ServeHTTP(w, r.WithContext(ctxWithUserID(r.Context(), "development")))
			return
		}

		token := sessionToken(r)
		if token == "" {
			m.unauthorized(w, r, errs.NewMissingTokenError())
			return
		}

		userID, err := m.verify(r.Context(), token)
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected admin token")
			m.unauthorized(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxWithUserID(r.Context(), userID)))
	})
}

func (m authMiddleware) verify(ctx context.Context, token string) (string, error) {
	if m.descope != nil {
		ok, session, err := m.descope.ValidateSessionWithToken(ctx, token)
		if err == nil && ok && session != nil {
			return session.ID, nil
		}
		if len(m.jwtSecret) == 0 {
			return "", errs.NewInvalidTokenError()
		}
	}
	if len(m.jwtSecret) == 0 {
		return "", errs.NewInvalidTokenError()
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errs.NewExpiredTokenError()
		}
		return "", errs.NewInvalidTokenError()
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errs.NewInvalidTokenError()
	}
	return subject, nil
}

// unauthorized redirects browsers to the login page and answers API clients
// with a 401 carrying the login URL.
func (m authMiddleware) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		target := m.loginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	response := ErrorResponse{Error: errs.ErrUnauthorized.Error(), Status: "error", Login: m.loginURL}
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		response.Error = apiErr.Message()
		response.Details = apiErr.Details
	}
	m.responder.WriteJSONStatus(w, http.StatusUnauthorized, response)
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// LogInternalServerErrors recovers from panics and logs every 500 response.
func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				if !srw.wroteHeader {
					responder := NewResponder(log.Logger, nil)
					responder.WriteJSONStatus(srw, http.StatusInternalServerError, ErrorResponse{
						Error:  "something went wrong",
						Status: "error",
						Retry:  true,
					})
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

func originAllowed(allowedOrigins []string, origin string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}

// CORSCheckMiddleware checks if the request is blocked by CORS and returns a proper error
func CORSCheckMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !originAllowed(allowedOrigins, origin) && r.Method == http.MethodOptions {
				responder := NewResponder(log.Logger, nil)
				responder.WriteError(w, errs.NewCORSError(origin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware handles CORS headers for allowed origins
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return originAllowed(allowedOrigins, origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestTokenHeader},
		ExposedHeaders:   []string{requestTokenHeader, "X-Cache"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(development bool) func(http.Handler) http.Handler {
	requestLogger := log.Logger
	if development {
		requestLogger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &statusResponseWriter{ResponseWriter: w, status: 200}

			next.ServeHTTP(srw, r)

			duration := time.Since(start)

			var logEvent *zerolog.Event
			switch {
			case srw.status >= 500:
				logEvent = requestLogger.Error()
			case srw.status >= 400:
				logEvent = requestLogger.Warn()
			default:
				logEvent = requestLogger.Info()
			}

			logEvent.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", srw.status).
				Dur("duration", duration).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP Request")
		})
	}
}

const requestTokenHeader = "X-Request-Token"

// requestTokenMiddleware echoes X-Request-Token so a client can drop
// responses to requests it has since superseded.
func requestTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(requestTokenHeader))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(token) > 128 {
			token = token[:128]
		}
		w.Header().Set(requestTokenHeader, token)
		next.ServeHTTP(w, r.WithContext(ctxWithRequestToken(r.Context(), token)))
	})
}

const maxCachedBody = 1 << 20 // 1 MiB

type cacheBodyWriter struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	overflow bool
}

func (w *cacheBodyWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *cacheBodyWriter) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if !w.overflow {
		if w.body.Len()+len(data) > maxCachedBody {
			w.overflow = true
			w.body.Reset()
		} else {
			w.body.Write(data)
		}
	}
	return w.ResponseWriter.Write(data)
}

// pageCacheKey ignores query parameter order and the request token.
func pageCacheKey(r *http.Request) string {
	key := r.URL.Path
	if q := r.URL.Query(); len(q) > 0 {
		key += "?" + q.Encode()
	}
	return key
}

// pageCacheMiddleware serves successful public GET responses from c.
// Entries are purged by path prefix when an admin change revalidates a page.
func pageCacheMiddleware(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c == nil || r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := pageCacheKey(r)
			if body, err := c.Get(r.Context(), key); err == nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			} else if !errors.Is(err, cache.ErrCacheMiss) {
				log.Warn().Err(err).Str("key", key).Msg("page cache read failed")
			}

			w.Header().Set("X-Cache", "MISS")
			recorder := &cacheBodyWriter{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			if recorder.status != http.StatusOK || recorder.overflow || recorder.body.Len() == 0 {
				return
			}
			if err := c.Set(r.Context(), key, recorder.body.Bytes(), ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("page cache write failed")
			}
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientRateLimiter keeps one token bucket per client address.
type clientRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	sweepAt  time.Time
	now      func() time.Time
}

func newClientRateLimiter(rps float64, burst int) *clientRateLimiter {
	return &clientRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (l *clientRateLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.sweepAt) {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, key)
			}
		}
		l.sweepAt = now.Add(l.idle)
	}

	v, ok := l.visitors[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[client] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *clientRateLimiter) retryAfter() time.Duration {
	if l.limit <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / float64(l.limit))
}

// trustedProxies are the peers allowed to report the client address in X-Forwarded-For.
type trustedProxies []*net.IPNet

func (t trustedProxies) contains(ip net.IP) bool {
	for _, block := range t {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// clientAddress returns the peer address, or, when the peer is a trusted proxy,
// the nearest X-Forwarded-For hop that is not itself a trusted proxy.
func (t trustedProxies) clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if peer := net.ParseIP(host); peer == nil || !t.contains(peer) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		ip := net.ParseIP(hop)
		if ip == nil {
			break
		}
		if !t.contains(ip) {
			return ip.String()
		}
	}
	return host
}

func rateLimitMiddleware(limiter *clientRateLimiter, proxies trustedProxies, service string) func(http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "rateLimit").Logger(), nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(proxies.clientAddress(r)) {
				retry := limiter.retryAfter()
				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retry.Round(time.Second).Seconds()))))
				responder.WriteError(w, errs.NewRateLimitError(service, retry))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
