package server

import (
	"context"
	"net/http"
	"strings"

	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
	goa "goa.design/goa/v3/pkg"
	"goa.design/goa/v3/security"

	"activation/internal/services"
	"activation/internal/util"
)

// Services groups the service implementations mounted by the server.
type Services struct {
	Health     *services.HealthService
	Auth       *services.AuthService
	Leads      *services.LeadService
	Devices    *services.DeviceService
	Moderation *services.ModerationService
	Users      *services.UserService
	Stats      *services.StatsService
	Utility    *services.UtilityService
}

// Server is the HTTP transport for the activation API.
type Server struct {
	svc     *Services
	mux     goahttp.Muxer
	limiter *util.RateLimiter
	handler http.Handler
}

type authKind int

const (
	authNone authKind = iota
	authAPIKey
	authJWT
)

// endpointFunc is the transport-level body of one route.
type endpointFunc func(ctx context.Context, req *request) (any, error)

type route struct {
	method  string
	pattern string
	auth    authKind
	scopes  []string
	status  int
	limited bool
	fn      endpointFunc
}

// New mounts every route on a goa muxer. limiter throttles the public
// funnel routes per client IP.
func New(svc *Services, limiter *util.RateLimiter) *Server {
	s := &Server{
		svc:     svc,
		mux:     goahttp.NewMuxer(),
		limiter: limiter,
	}
	for _, rt := range s.routes() {
		s.mount(rt)
	}

	var h http.Handler = s.mux
	h = middleware.RequestID()(h)
	h = middleware.PopulateRequestContext()(h)
	s.handler = h
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) mount(rt route) {
	endpoint := s.endpoint(rt)
	status := rt.status
	if status == 0 {
		status = http.StatusOK
	}

	s.mux.Handle(rt.method, rt.pattern, func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := requestID(ctx); id != "" {
			w.Header().Set("X-Request-ID", id)
		}

		req := &request{r: r, vars: s.mux.Vars(r)}
		res, err := endpoint(ctx, req)
		if err != nil {
			encodeError(ctx, w, err)
			return
		}
		encodeResponse(ctx, w, status, res)
	})
}

// endpoint wraps the route body with its security and throttling
// middleware, outermost last.
func (s *Server) endpoint(rt route) goa.Endpoint {
	fn := rt.fn
	var ep goa.Endpoint = func(ctx context.Context, v any) (any, error) {
		return fn(ctx, v.(*request))
	}

	switch rt.auth {
	case authJWT:
		ep = s.jwtAuth(ep, &security.JWTScheme{
			Name:           "jwt",
			Scopes:         []string{services.ScopeAdmin, services.ScopeSuper},
			RequiredScopes: rt.scopes,
		})
	case authAPIKey:
		ep = s.apiKeyAuth(ep)
	}

	if rt.limited {
		ep = s.rateLimit(ep, rt.method+" "+rt.pattern)
	}
	return ep
}

func (s *Server) jwtAuth(next goa.Endpoint, scheme *security.JWTScheme) goa.Endpoint {
	return func(ctx context.Context, v any) (any, error) {
		req := v.(*request)
		token, ok := bearerToken(req.r)
		if !ok {
			return nil, services.NewUnauthorizedError("Authorization header required")
		}
		caller, err := s.svc.Auth.JWTAuth(ctx, token, scheme)
		if err != nil {
			return nil, err
		}
		req.caller = caller
		return next(ctx, req)
	}
}

func (s *Server) apiKeyAuth(next goa.Endpoint) goa.Endpoint {
	return func(ctx context.Context, v any) (any, error) {
		req := v.(*request)
		key, ok := bearerToken(req.r)
		if !ok {
			key = strings.TrimSpace(req.r.Header.Get("Authorization"))
		}
		if err := s.svc.Auth.APIKeyAuth(key); err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

// rateLimit throttles each client IP separately per route.
func (s *Server) rateLimit(next goa.Endpoint, routeKey string) goa.Endpoint {
	return func(ctx context.Context, v any) (any, error) {
		req := v.(*request)
		if s.limiter != nil {
			if err := s.limiter.Allow(routeKey + "|" + clientIP(req.r)); err != nil {
				return nil, goa.NewServiceError(err, errNameTooManyRequests, false, true, false)
			}
		}
		return next(ctx, req)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// clientIP prefers the first X-Forwarded-For hop, as set by the load
// balancer in front of the API.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
