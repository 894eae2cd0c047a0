// Package api serves the light client over gRPC and HTTP.
package api

import (
	"context"
	"net"
	"net/http"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient"
	"github.com/bitcoin-sv/btcx/services/submitter"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util"
	"github.com/bitcoin-sv/btcx/util/health"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
	"google.golang.org/grpc"
)

// Server is the gRPC service in front of a LightClient and its submitters.
// attested is nil when the attested submitter is disabled.
type Server struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	lightClient *lightclient.LightClient
	direct      *submitter.Direct
	attested    *submitter.Attested
	listener    net.Listener
	serving     atomic.Bool
}

func New(logger ulogger.Logger, tSettings *settings.Settings, lc *lightclient.LightClient, direct *submitter.Direct,
	attested *submitter.Attested) *Server {
	initPrometheusMetrics()

	return &Server{
		logger:      logger,
		settings:    tSettings,
		lightClient: lc,
		direct:      direct,
		attested:    attested,
	}
}

// WithListener serves on lis instead of lightclient_grpcListenAddress.
func (s *Server) WithListener(lis net.Listener) *Server {
	s.listener = lis
	return s
}

func (s *Server) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	checks := []health.Check{
		{Name: "LightClient", Check: s.lightClient.Health},
		{Name: "GRPCServer", Check: s.grpcHealth},
	}

	return health.CheckAll(ctx, checkLiveness, checks)
}

func (s *Server) grpcHealth(_ context.Context, _ bool) (int, string, error) {
	if !s.serving.Load() {
		return http.StatusServiceUnavailable, "not serving", errors.NewServiceNotStartedError("gRPC server is not serving")
	}

	return http.StatusOK, "serving", nil
}

// Init initializes the chain state from the lightclient_genesis_* settings.
// Without a configured genesis hash the store must already be initialized.
func (s *Server) Init(ctx context.Context) error {
	if s.direct == nil {
		return errors.NewConfigurationError("direct submitter is required")
	}

	if s.settings.LightClient.Genesis.Hash == "" {
		if _, err := s.lightClient.Genesis(ctx); err != nil {
			return errors.NewConfigurationError("lightclient_genesis_hash is not set and the store is not initialized", err)
		}

		return nil
	}

	return s.lightClient.InitializeFromSettings(ctx)
}

func (s *Server) Start(ctx context.Context, readyCh chan<- struct{}) error {
	if s.attested != nil {
		s.attested.Start()
		defer s.attested.Stop()
	}

	register := func(server *grpc.Server) {
		RegisterLightClientAPIServer(server, s)
		s.serving.Store(true)
		close(readyCh)
	}

	auth := &util.AuthOptions{
		APIKey:           s.settings.LightClient.AdminToken,
		ProtectedMethods: protectedMethods,
		MethodKeys:       make(map[string]string, len(relayMethods)),
	}

	for method := range relayMethods {
		auth.MethodKeys[method] = s.settings.Submitter.RelayToken
	}

	defer s.serving.Store(false)

	if s.listener != nil {
		return util.ServeGRPC(ctx, s.logger, s.settings, "lightclient", s.listener, register, auth)
	}

	return util.StartGRPCServer(ctx, s.logger, s.settings, "lightclient", s.settings.LightClient.GRPCListenAddress, register, auth)
}

func (s *Server) Stop(_ context.Context) error {
	if s.attested != nil {
		s.attested.Stop()
	}

	return nil
}

func (s *Server) HealthGRPC(ctx context.Context, req *HealthRequest) (*HealthResponse, error) {
	prometheusAPIRequests.WithLabelValues("Health").Inc()

	status, details, err := s.Health(ctx, req.CheckLiveness)

	return &HealthResponse{
		Ok:      err == nil && status == http.StatusOK,
		Status:  status,
		Details: details,
	}, nil
}

func (s *Server) BestBlockHeight(ctx context.Context, _ *Empty) (*HeightResponse, error) {
	prometheusAPIRequests.WithLabelValues("BestBlockHeight").Inc()

	height, err := s.lightClient.BestBlockHeight(ctx)
	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return &HeightResponse{Height: height}, nil
}

func (s *Server) BestBlockHash(ctx context.Context, _ *Empty) (*HashResponse, error) {
	prometheusAPIRequests.WithLabelValues("BestBlockHash").Inc()

	hash, err := s.lightClient.BestBlockHash(ctx)
	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return &HashResponse{Hash: hash.String()}, nil
}

func (s *Server) GetTip(ctx context.Context, _ *Empty) (*TipResponse, error) {
	prometheusAPIRequests.WithLabelValues("GetTip").Inc()

	tip, err := s.lightClient.Tip(ctx)
	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return newTipResponse(tip), nil
}

func (s *Server) Submit(ctx context.Context, req *SubmitRequest) (*TipResponse, error) {
	prometheusAPIRequests.WithLabelValues("Submit").Inc()

	ctx, _, deferFn := tracing.StartTracing(ctx, "api:Submit",
		tracing.WithHistogram(prometheusAPISubmit),
		tracing.WithAttributes(attribute.String("parent", req.ParentHash)),
	)

	tip, err := s.submit(ctx, req)

	deferFn(err)

	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return newTipResponse(tip), nil
}

func (s *Server) submit(ctx context.Context, req *SubmitRequest) (*model.ChainTip, error) {
	parent, err := parseHash("parentHash", req.ParentHash)
	if err != nil {
		return nil, err
	}

	return s.direct.Submit(ctx, parent, req.Headers)
}

func (s *Server) RequestAttestation(ctx context.Context, req *AttestationRequest) (*AttestationRequestResponse, error) {
	prometheusAPIRequests.WithLabelValues("RequestAttestation").Inc()

	if s.attested == nil {
		return nil, errors.WrapGRPC(errors.NewServiceUnavailableError("attested submitter is not enabled"))
	}

	parent, err := parseHash("parentHash", req.ParentHash)
	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	pending, err := s.attested.Request(ctx, parent, req.HeaderCount)
	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return &AttestationRequestResponse{
		RequestID:    pending.ID,
		FunctionID:   pending.FunctionID,
		ParentHeight: pending.ParentHeight,
		Retarget:     pending.Retarget,
	}, nil
}

func (s *Server) SubmitAttestation(ctx context.Context, req *AttestationMessage) (*TipResponse, error) {
	prometheusAPIRequests.WithLabelValues("SubmitAttestation").Inc()

	tip, err := s.callback(ctx, req)
	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return newTipResponse(tip), nil
}

// callback hands a relay attestation to the attested submitter. Shared by
// the gRPC and HTTP surfaces.
func (s *Server) callback(ctx context.Context, msg *AttestationMessage) (tip *model.ChainTip, err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "api:Attestation",
		tracing.WithHistogram(prometheusAPIAttestation),
		tracing.WithAttributes(attribute.String("request", msg.RequestID)),
	)

	defer func() {
		deferFn(err)
	}()

	if s.attested == nil {
		return nil, errors.NewServiceUnavailableError("attested submitter is not enabled")
	}

	att, err := msg.attestation()
	if err != nil {
		return nil, err
	}

	return s.attested.Callback(ctx, att)
}

func (s *Server) GetSubmitters(ctx context.Context, _ *Empty) (*SubmittersResponse, error) {
	prometheusAPIRequests.WithLabelValues("GetSubmitters").Inc()

	ids, err := s.lightClient.Submitters(ctx)
	if err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return &SubmittersResponse{SubmitterIDs: ids}, nil
}

func (s *Server) Authorize(ctx context.Context, req *SubmitterRequest) (*Empty, error) {
	prometheusAPIRequests.WithLabelValues("Authorize").Inc()

	if err := s.lightClient.Authorize(ctx, req.SubmitterID); err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return &Empty{}, nil
}

func (s *Server) Revoke(ctx context.Context, req *SubmitterRequest) (*Empty, error) {
	prometheusAPIRequests.WithLabelValues("Revoke").Inc()

	if err := s.lightClient.Revoke(ctx, req.SubmitterID); err != nil {
		return nil, errors.WrapGRPC(err)
	}

	return &Empty{}, nil
}
