package rpc

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ricks/core/events"
	"ricks/explorer"
	"ricks/native/vault"
	"ricks/observability"
)

// Config tunes the HTTP API.
type Config struct {
	ListenAddress     string
	JWTSecret         []byte
	JWTIssuer         string
	RequestsPerSecond float64
	Burst             int
	SignatureSkew     time.Duration
	EnableFaucet      bool
	ReadTimeout       time.Duration
}

// Server exposes the vault over HTTP.
type Server struct {
	vault   *vault.Vault
	hub     *events.Hub
	archive *explorer.Archive
	cfg     Config
	logger  *slog.Logger
	limiter *rateLimiter
	replay  *replayCache
	nowFn   func() time.Time
}

// NewServer constructs the API. The hub and archive are optional; their
// endpoints answer 503 when absent.
func NewServer(v *vault.Vault, hub *events.Hub, archive *explorer.Archive, cfg Config, logger *slog.Logger) (*Server, error) {
	if v == nil {
		return nil, errors.New("rpc: vault required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SignatureSkew <= 0 {
		cfg.SignatureSkew = 2 * time.Minute
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	return &Server{
		vault:   v,
		hub:     hub,
		archive: archive,
		cfg:     cfg,
		logger:  logger.With("component", "rpc"),
		limiter: newRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		replay:  newReplayCache(),
		nowFn:   time.Now,
	}, nil
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(s.limiter.middleware)

		v1.Get("/auction", s.handleAuction)
		v1.Get("/price/average", s.handleAveragePrice)
		v1.Get("/price/history", s.handlePriceHistory)
		v1.Get("/buyout", s.handleBuyout)
		v1.Get("/accounts/{address}", s.handleAccount)
		v1.Get("/archive/events", s.handleArchive)
		v1.Get("/events/ws", s.handleEventsWS)

		v1.Group(func(signed chi.Router) {
			signed.Use(s.requireSignature)
			signed.Post("/activate", s.handleActivate)
			signed.Post("/auction/start", s.handleStartAuction)
			signed.Post("/auction/bid", s.handleBid)
			signed.Post("/auction/end", s.handleEndAuction)
			signed.Post("/buyout", s.handleExecuteBuyout)
			signed.Post("/redeem", s.handleRedeem)
			signed.Post("/withdraw", s.handleWithdraw)
			signed.Post("/weth/wrap", s.handleWrap)
			signed.Post("/weth/unwrap", s.handleUnwrap)
			signed.Post("/shares/transfer", s.handleTransferShares)
			signed.Post("/staking/stake", s.handleStake)
			signed.Post("/staking/unstake", s.handleUnstake)
			signed.Post("/staking/claim", s.handleClaim)
			signed.Post("/staking/deposit", s.handleDeposit)
		})
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(s.requireAdmin)
		admin.Post("/pause", s.handlePause)
		admin.Post("/faucet", s.handleFaucet)
	})

	return otelhttp.NewHandler(r, "ricks.rpc")
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket endpoint take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("rpc: connection does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		observability.API().ObserveRequest(r.Method, route, rec.status, time.Since(start))
	})
}

// Serve listens until ctx is cancelled and then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc listening", "addr", s.cfg.ListenAddress)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
