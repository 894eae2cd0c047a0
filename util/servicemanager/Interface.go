package servicemanager

import "context"

// Service is run by the ServiceManager. Start blocks until ctx is done and
// closes readyCh once it accepts work.
type Service interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Init(ctx context.Context) error
	Start(ctx context.Context, readyCh chan<- struct{}) error
	Stop(ctx context.Context) error
}
