package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP serves health, metrics, the tip and the relay's attestation callback.
type HTTP struct {
	logger  ulogger.Logger
	server  *Server
	address string
	e       *echo.Echo
}

type errorResponse struct {
	Status int    `json:"status"`
	Code   int32  `json:"code"`
	Err    string `json:"error"`
}

func NewHTTP(logger ulogger.Logger, server *Server, address string) *HTTP {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	h := &HTTP{
		logger:  logger,
		server:  server,
		address: address,
		e:       e,
	}

	e.GET("/health", h.health(false))
	e.GET("/health/liveness", h.health(true))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/tip", h.getTip)
	e.POST("/attestations", h.postAttestation, h.relayAuth())

	return h
}

// Handler exposes the router, mostly for tests.
func (h *HTTP) Handler() http.Handler {
	return h.e
}

func (h *HTTP) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	return h.server.Health(ctx, checkLiveness)
}

func (h *HTTP) Init(_ context.Context) error {
	return nil
}

func (h *HTTP) Start(ctx context.Context, readyCh chan<- struct{}) error {
	lis, err := net.Listen("tcp", h.address)
	if err != nil {
		return errors.NewServiceError("[HTTP] failed to listen on %s", h.address, err)
	}

	h.e.Listener = lis

	h.logger.Infof("[HTTP] service listening on %s", lis.Addr())

	go func() {
		<-ctx.Done()
		h.logger.Infof("[HTTP] service shutting down")

		if err := h.e.Shutdown(context.Background()); err != nil {
			h.logger.Errorf("[HTTP] service shutdown error: %s", err)
		}
	}()

	close(readyCh)

	if err = h.e.Start(h.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.NewServiceError("[HTTP] server failed", err)
	}

	return nil
}

func (h *HTTP) Stop(ctx context.Context) error {
	return h.e.Shutdown(ctx)
}

func (h *HTTP) health(checkLiveness bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, details, err := h.server.Health(c.Request().Context(), checkLiveness)
		if err != nil && status == http.StatusOK {
			status = http.StatusServiceUnavailable
		}

		return c.String(status, details)
	}
}

func (h *HTTP) getTip(c echo.Context) error {
	tip, err := h.server.lightClient.Tip(c.Request().Context())
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(http.StatusOK, newTipResponse(tip))
}

// relayAuth requires the relay token in the x-api-key header.
func (h *HTTP) relayAuth() echo.MiddlewareFunc {
	token := []byte(h.server.settings.Submitter.RelayToken)

	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + util.APIKeyHeader,
		Validator: func(key string, _ echo.Context) (bool, error) {
			return len(token) > 0 && subtle.ConstantTimeCompare([]byte(key), token) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			h.logger.Warnf("[HTTP] unauthenticated attestation callback from %s", c.RealIP())
			return sendError(c, errors.NewUnauthorizedError("attestation callbacks require the relay token", err))
		},
	})
}

func (h *HTTP) postAttestation(c echo.Context) error {
	msg := &AttestationMessage{}
	if err := json.NewDecoder(c.Request().Body).Decode(msg); err != nil {
		return sendError(c, errors.NewInvalidArgumentError("invalid attestation body", err))
	}

	h.logger.Debugf("[HTTP] attestation for request %s", msg.RequestID)

	tip, err := h.server.callback(c.Request().Context(), msg)
	if err != nil {
		h.logger.Warnf("[HTTP] attestation for request %s rejected: %v", msg.RequestID, err)
		return sendError(c, err)
	}

	return c.JSON(http.StatusOK, newTipResponse(tip))
}

func sendError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	code := errors.ERR_ERROR

	var e *errors.Error
	if errors.As(err, &e) {
		code = e.Code()
	}

	switch {
	case code == errors.ERR_INVALID_ARGUMENT, errors.IsHeaderRejectionCode(code):
		status = http.StatusBadRequest
	case code == errors.ERR_UNAUTHORIZED:
		status = http.StatusForbidden
	case code == errors.ERR_NOT_FOUND, code == errors.ERR_UNKNOWN_PARENT:
		status = http.StatusNotFound
	case code == errors.ERR_FORKS_NOT_SUPPORTED, code == errors.ERR_STATE_NOT_INITIALIZED:
		status = http.StatusConflict
	case code == errors.ERR_SERVICE_UNAVAILABLE:
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, &errorResponse{
		Status: status,
		Code:   int32(code),
		Err:    err.Error(),
	})
}
