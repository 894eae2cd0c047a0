package btcx

import (
	"context"
	"time"

	"github.com/bitcoin-sv/btcx/services/api"
	"github.com/bitcoin-sv/btcx/services/lightclient"
	"github.com/bitcoin-sv/btcx/services/submitter"
	"github.com/bitcoin-sv/btcx/stores/headerchain/factory"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/util/kafka"
	"github.com/bitcoin-sv/btcx/util/servicemanager"
	"github.com/urfave/cli/v2"
)

// serve runs the gRPC service and, when an HTTP address is set, the HTTP
// service until a shutdown signal.
func (a *app) serve(c *cli.Context) error {
	tSettings := a.settings
	logger := a.logger

	if tSettings.Tracing.Enabled {
		if err := tracing.InitTracer(tSettings); err != nil {
			return err
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = tracing.ShutdownTracer(ctx)
		}()
	}

	store, err := factory.NewStore(logger, tSettings, tSettings.LightClient.StoreURL)
	if err != nil {
		return err
	}

	defer func() {
		_ = store.Close()
	}()

	notifier, closeNotifier, err := a.tipNotifier()
	if err != nil {
		return err
	}

	defer closeNotifier()

	lc, err := lightclient.New(logger.New("lc"), tSettings, store, notifier)
	if err != nil {
		return err
	}

	direct, err := submitter.NewDirect(logger.New("direct"), tSettings, lc)
	if err != nil {
		return err
	}

	var attested *submitter.Attested

	if tSettings.Submitter.AttestedEnabled {
		relay, err := submitter.NewRelayClient(logger.New("relay"), tSettings)
		if err != nil {
			return err
		}

		if attested, err = submitter.NewAttested(logger.New("attested"), tSettings, lc, relay); err != nil {
			return err
		}
	}

	server := api.New(logger.New("api"), tSettings, lc, direct, attested)

	sm := servicemanager.NewServiceManager(c.Context, logger)
	sm.HandleSignals()

	if err = sm.AddService("LightClient", server); err != nil {
		return abort(sm, err)
	}

	if addr := tSettings.LightClient.HTTPListenAddress; addr != "" {
		if err = sm.AddService("HTTP", api.NewHTTP(logger.New("http"), server, addr)); err != nil {
			return abort(sm, err)
		}
	}

	return sm.Wait()
}

// abort stops the services already started.
func abort(sm *servicemanager.ServiceManager, err error) error {
	sm.ForceShutdown()
	_ = sm.Wait()

	return err
}

// tipNotifier publishes accepted tips to kafka_tipsURL, when set.
func (a *app) tipNotifier() (lightclient.Notifier, func(), error) {
	tipsURL := a.settings.Kafka.TipsURL
	if tipsURL == nil {
		return nil, func() {}, nil
	}

	clusterAdmin, producer, err := kafka.NewKafkaProducer(tipsURL)
	if err != nil {
		return nil, nil, err
	}

	a.logger.Infof("[serve] publishing tips to %s", tipsURL.Redacted())

	tips := kafka.NewTipProducer(producer)

	return tips, func() {
		_ = tips.Close()
		_ = clusterAdmin.Close()
	}, nil
}
