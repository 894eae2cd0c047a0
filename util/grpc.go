package util

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	prometheusgolang "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/resolver"
	"google.golang.org/grpc/status"
)

const (
	maxMessageSize = 64 * 1024 * 1024

	// APIKeyHeader carries the key of protected methods.
	APIKeyHeader = "x-api-key"

	defaultRetryBackoff = 100 * time.Millisecond
)

// ConnectionOptions configure both ends of a gRPC connection.
type ConnectionOptions struct {
	MaxMessageSize int           // Max message size in bytes
	SecurityLevel  int           // 0 = insecure, 1 = server TLS, 2 = any client cert, 3 = verified client cert
	CertFile       string        // Own certificate if SecurityLevel > 0
	CaCertFile     string        // CA certificate if SecurityLevel > 1
	KeyFile        string        // Own key if SecurityLevel > 0
	MaxRetries     int           // Max attempts for Unavailable and DeadlineExceeded
	RetryBackoff   time.Duration // Backoff between attempts
	APIKey         string        // Sent as x-api-key with every call
}

// ConnectionOptionsFromSettings reads the grpc settings.
func ConnectionOptionsFromSettings(tSettings *settings.Settings) *ConnectionOptions {
	return &ConnectionOptions{
		SecurityLevel: tSettings.GRPC.SecurityLevel,
		CertFile:      tSettings.GRPC.CertFile,
		CaCertFile:    tSettings.GRPC.CaCertFile,
		KeyFile:       tSettings.GRPC.KeyFile,
		MaxRetries:    tSettings.GRPC.MaxRetries,
		RetryBackoff:  tSettings.GRPC.RetryBackoff,
	}
}

func init() {
	resolver.SetDefaultScheme("dns")
}

var (
	prometheusRegisterServerOnce sync.Once
	prometheusRegisterClientOnce sync.Once

	prometheusServerMetrics = prometheus.NewServerMetrics(
		prometheus.WithServerHandlingTimeHistogram(),
	)
	prometheusClientMetrics = prometheus.NewClientMetrics(
		prometheus.WithClientHandlingTimeHistogram(),
	)
)

// GetGRPCClient creates a client connection to address. The connection is
// lazy, the first call dials.
func GetGRPCClient(_ context.Context, address string, connectionOptions *ConnectionOptions, tSettings *settings.Settings, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	if address == "" {
		return nil, errors.NewInvalidArgumentError("address is required")
	}

	if connectionOptions.MaxMessageSize == 0 {
		connectionOptions.MaxMessageSize = maxMessageSize
	}

	tlsCredentials, err := loadTLSCredentials(connectionOptions, false)
	if err != nil {
		return nil, err
	}

	opts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(connectionOptions.MaxMessageSize),
			grpc.MaxCallRecvMsgSize(connectionOptions.MaxMessageSize),
		),
		grpc.WithTransportCredentials(tlsCredentials),
	}

	unaryInterceptors := make([]grpc.UnaryClientInterceptor, 0, 3)

	if connectionOptions.APIKey != "" {
		apiKey := connectionOptions.APIKey

		unaryInterceptors = append(unaryInterceptors,
			func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn,
				invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
				ctx = metadata.AppendToOutgoingContext(ctx, APIKeyHeader, apiKey)
				return invoker(ctx, method, req, reply, cc, opts...)
			})
	}

	if tSettings.Tracing.Enabled {
		opts = append(opts, grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	}

	if tSettings.GRPC.UsePrometheusMetrics {
		unaryInterceptors = append(unaryInterceptors, prometheusClientMetrics.UnaryClientInterceptor())

		prometheusRegisterClientOnce.Do(func() {
			prometheusgolang.MustRegister(prometheusClientMetrics)
		})
	}

	if connectionOptions.MaxRetries > 0 {
		if connectionOptions.RetryBackoff == 0 {
			connectionOptions.RetryBackoff = defaultRetryBackoff
		}

		unaryInterceptors = append(unaryInterceptors, retryInterceptor(connectionOptions.MaxRetries, connectionOptions.RetryBackoff))
	}

	if len(unaryInterceptors) > 0 {
		opts = append(opts, grpc.WithChainUnaryInterceptor(unaryInterceptors...))
	}

	opts = append(opts, extra...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, errors.NewServiceError("error creating grpc client for %s", address, err)
	}

	return conn, nil
}

// AuthOptions protect methods with an API key. MethodKeys protects further
// methods, each with its own key.
type AuthOptions struct {
	APIKey           string
	ProtectedMethods map[string]bool
	MethodKeys       map[string]string
}

// NewGRPCServer creates a server with the message limits, credentials, tracing
// and metrics configured in tSettings.
func NewGRPCServer(tSettings *settings.Settings, auth *AuthOptions, opts ...grpc.ServerOption) (*grpc.Server, error) {
	connectionOptions := ConnectionOptionsFromSettings(tSettings)
	connectionOptions.MaxMessageSize = maxMessageSize

	opts = append(opts,
		grpc.MaxSendMsgSize(connectionOptions.MaxMessageSize),
		grpc.MaxRecvMsgSize(connectionOptions.MaxMessageSize),
	)

	unaryInterceptors := make([]grpc.UnaryServerInterceptor, 0, 2)

	if tSettings.Tracing.Enabled {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}

	if tSettings.GRPC.UsePrometheusMetrics {
		unaryInterceptors = append(unaryInterceptors, prometheusServerMetrics.UnaryServerInterceptor())

		prometheusRegisterServerOnce.Do(func() {
			prometheusgolang.MustRegister(prometheusServerMetrics)
		})
	}

	if auth != nil && len(auth.ProtectedMethods) > 0 {
		unaryInterceptors = append(unaryInterceptors, CreateAuthInterceptor(auth.APIKey, auth.ProtectedMethods))
	}

	if auth != nil {
		for method, key := range auth.MethodKeys {
			unaryInterceptors = append(unaryInterceptors, CreateAuthInterceptor(key, map[string]bool{method: true}))
		}
	}

	if len(unaryInterceptors) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(unaryInterceptors...))
	}

	tlsCredentials, err := loadTLSCredentials(connectionOptions, true)
	if err != nil {
		return nil, err
	}

	opts = append(opts, grpc.Creds(tlsCredentials))

	server := grpc.NewServer(opts...)

	if tSettings.GRPC.UsePrometheusMetrics {
		prometheusServerMetrics.InitializeMetrics(server)
	}

	return server, nil
}

// StartGRPCServer listens on address and serves until ctx is done.
func StartGRPCServer(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, serviceName, address string,
	register func(server *grpc.Server), auth *AuthOptions) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return errors.NewServiceError("[%s] GRPC server failed to listen on %s", serviceName, address, err)
	}

	return ServeGRPC(ctx, logger, tSettings, serviceName, lis, register, auth)
}

// ServeGRPC serves on lis until ctx is done, then stops gracefully.
func ServeGRPC(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, serviceName string, lis net.Listener,
	register func(server *grpc.Server), auth *AuthOptions) error {
	grpcServer, err := NewGRPCServer(tSettings, auth)
	if err != nil {
		return errors.NewConfigurationError("[%s] could not create GRPC server", serviceName, err)
	}

	reflection.Register(grpcServer)

	register(grpcServer)

	logger.Infof("[%s] GRPC service listening on %s", serviceName, lis.Addr())

	go func() {
		<-ctx.Done()
		logger.Infof("[%s] GRPC service shutting down", serviceName)
		grpcServer.GracefulStop()
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return errors.NewServiceError("[%s] GRPC server failed", serviceName, err)
	}

	return nil
}

// retryInterceptor retries calls that failed with Unavailable or DeadlineExceeded.
func retryInterceptor(maxRetries int, retryBackoff time.Duration) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		var err error

		for i := 0; i < maxRetries; i++ {
			err = invoker(ctx, method, req, reply, cc, opts...)
			if err == nil {
				return nil
			}

			if status.Code(err) != codes.Unavailable && status.Code(err) != codes.DeadlineExceeded {
				break
			}

			select {
			case <-ctx.Done():
				return err
			case <-time.After(retryBackoff):
			}
		}

		return err
	}
}

func loadTLSCredentials(connectionData *ConnectionOptions, isServer bool) (credentials.TransportCredentials, error) {
	switch connectionData.SecurityLevel {
	case 0:
		return insecure.NewCredentials(), nil

	case 1:
		if !isServer {
			return credentials.NewTLS(&tls.Config{
				//nolint:gosec // G402: TLS InsecureSkipVerify set true. (gosec)
				InsecureSkipVerify: true,
			}), nil
		}

		cert, err := tls.LoadX509KeyPair(connectionData.CertFile, connectionData.KeyFile)
		if err != nil {
			return nil, errors.NewConfigurationError("failed to read key pair", err)
		}

		return credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientAuth:   tls.NoClientCert,
			MinVersion:   tls.VersionTLS12,
		}), nil

	case 2, 3:
		cert, err := tls.LoadX509KeyPair(connectionData.CertFile, connectionData.KeyFile)
		if err != nil {
			return nil, errors.NewConfigurationError("failed to read key pair", err)
		}

		if isServer && connectionData.SecurityLevel == 2 {
			return credentials.NewTLS(&tls.Config{
				Certificates: []tls.Certificate{cert},
				ClientAuth:   tls.RequireAnyClientCert,
				MinVersion:   tls.VersionTLS12,
			}), nil
		}

		caCertPool, err := loadCertPool(connectionData.CaCertFile)
		if err != nil {
			return nil, err
		}

		if isServer {
			return credentials.NewTLS(&tls.Config{
				Certificates: []tls.Certificate{cert},
				ClientAuth:   tls.RequireAndVerifyClientCert,
				ClientCAs:    caCertPool,
				MinVersion:   tls.VersionTLS12,
			}), nil
		}

		return credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			//nolint:gosec // G402: TLS InsecureSkipVerify set true. (gosec)
			InsecureSkipVerify: true,
			RootCAs:            caCertPool,
		}), nil
	}

	return nil, errors.NewConfigurationError("securityLevel must be 0, 1, 2 or 3")
}

func loadCertPool(caCertFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caCertFile)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to read ca cert file", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, errors.NewConfigurationError("no certificates in %s", caCertFile)
	}

	return caCertPool, nil
}

// CreateAuthInterceptor requires the x-api-key metadata to equal apiKey for
// the methods in protectedMethods. Other methods pass through.
func CreateAuthInterceptor(apiKey string, protectedMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !protectedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		if apiKey == "" {
			return nil, status.Error(codes.PermissionDenied, "method is disabled without an api key")
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		keys := md.Get(APIKeyHeader)
		if len(keys) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing API key")
		}

		if subtle.ConstantTimeCompare([]byte(keys[0]), []byte(apiKey)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid API key")
		}

		return handler(ctx, req)
	}
}
