package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cardapio/internal/config"
	"cardapio/internal/domain"
	"cardapio/internal/export"
	"cardapio/internal/logging"
	"cardapio/internal/menusync"
	"cardapio/internal/models"

	"github.com/rs/zerolog"
)

// OrderService adds single-order lookup to the domain contract.
type OrderService interface {
	domain.OrderService
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
}

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Menu      domain.MenuService
	Notifier  domain.MenuNotifier
	Orders    OrderService
	Customers domain.CustomerService
	SiteInfo  domain.SiteInfoService
	Exporter  *export.OrdersExporter
}

// Server is the cardapio HTTP API.
type Server struct {
	cfg     *config.Config
	deps    Deps
	auth    *Authenticator
	limiter *rateLimiter
	logger  *zerolog.Logger
	server  *http.Server
	started time.Time
}

func NewServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		auth:    NewAuthenticator(cfg.Auth, cfg.Notify.PeerToken),
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logging.Component(logger, "http"),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	handler := recoverMiddleware(s.logger, corsMiddleware(s.limiter.Wrap(mux)))
	handler = loggingMiddleware(s.logger, handler)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	admin := s.auth.requireAdmin

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/verify", s.handleVerify)

	mux.HandleFunc("GET /api/cardapio", s.handleMenuPublic)
	mux.HandleFunc("GET /api/cardapio/sync", s.handleMenuSync)
	mux.HandleFunc("GET /api/cardapio/admin", admin(s.handleMenuAdmin))
	mux.HandleFunc("GET /api/cardapio/{id}", s.handleMenuGet)
	mux.HandleFunc("POST /api/cardapio", admin(s.handleMenuCreate))
	mux.HandleFunc("PUT /api/cardapio/{id}", admin(s.handleMenuUpdate))
	mux.HandleFunc("DELETE /api/cardapio/{id}", admin(s.handleMenuSoftDelete))
	mux.HandleFunc("DELETE /api/cardapio/{id}/permanent", admin(s.handleMenuHardDelete))
	mux.HandleFunc("POST /api/cardapio/invalidate", s.auth.requireAdminOrPeer(s.handleMenuInvalidate))

	mux.HandleFunc("POST /api/pedidos", s.handleOrderCreate)
	mux.HandleFunc("GET /api/pedidos", admin(s.handleOrderList))
	mux.HandleFunc("GET /api/pedidos/export", admin(s.handleOrderExport))
	mux.HandleFunc("PUT /api/pedidos/{id}/status", admin(s.handleOrderStatus))
	mux.HandleFunc("DELETE /api/pedidos/{id}", admin(s.handleOrderCancel))

	mux.HandleFunc("GET /api/clientes", admin(s.handleCustomerList))
	mux.HandleFunc("POST /api/clientes", admin(s.handleCustomerCreate))
	mux.HandleFunc("DELETE /api/clientes/{id}", admin(s.handleCustomerDelete))

	mux.HandleFunc("GET /api/siteinfo", s.handleSiteInfoGet)
	mux.HandleFunc("PUT /api/siteinfo", admin(s.handleSiteInfoUpdate))

	mux.HandleFunc("GET /api/health", s.handleHealth)
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Menu.Status()
	status := "ok"
	if st.BreakerState != menusync.StateClosed {
		status = "degraded"
	}
	instanceID := ""
	if s.deps.Notifier != nil {
		instanceID = s.deps.Notifier.InstanceID()
	}
	writeOK(w, http.StatusOK, map[string]any{
		"instanceId": instanceID,
		"status":     status,
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"version":    s.cfg.App.Version,
		"menu":       st,
	})
}
