package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

type VerifierSettings struct {
	// MaxHeaders caps the number of 80-byte records in one batch.
	MaxHeaders         int
	BoundaryParentOnly bool
}

type GenesisSettings struct {
	Height     int
	Hash       string
	Bits       string
	Commitment string
	Timestamp  int
	// EpochStartHash is required when Height is not a retarget boundary.
	EpochStartHash string
}

type LightClientSettings struct {
	StoreURL          *url.URL
	DataFolder        string
	PostgresMaxIdle   int
	PostgresMaxOpen   int
	RetainHeaders     int
	Genesis           GenesisSettings
	Submitters        []string
	GRPCAddress       string
	GRPCListenAddress string
	HTTPListenAddress string
	AdminToken        string
}

type SubmitterSettings struct {
	DirectID          string
	AttestedEnabled   bool
	AttestedID        string
	RelayURL          string
	CallbackURL       string
	VerifyFunctions   []string
	RetargetFunctions []string
	RequestTTL        time.Duration
	RelayTimeout      time.Duration
	RelayMaxRetries   int
	RelayToken        string
}

type KafkaSettings struct {
	TipsURL           *url.URL
	Partitions        int
	ReplicationFactor int
}

type TracingSettings struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type GRPCSettings struct {
	// SecurityLevel 0 is plaintext, 1 server TLS, 2 any client cert, 3 verified client cert.
	SecurityLevel        int
	CertFile             string
	KeyFile              string
	CaCertFile           string
	UsePrometheusMetrics bool
	MaxRetries           int
	RetryBackoff         time.Duration
}

type RPCSettings struct {
	URL string
}

type Settings struct {
	ClientName     string
	LogLevel       string
	LoggerType     string
	ServiceName    string
	ChainCfgParams *chaincfg.Params
	Verifier       VerifierSettings
	LightClient    LightClientSettings
	Submitter      SubmitterSettings
	Kafka          KafkaSettings
	Tracing        TracingSettings
	GRPC           GRPCSettings
	RPC            RPCSettings
}
