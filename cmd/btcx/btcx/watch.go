package btcx

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/urfave/cli/v2"
)

func (a *app) watch(c *cli.Context) error {
	if a.settings.Kafka.TipsURL == nil {
		return errors.NewConfigurationError("kafka_tipsURL is not set")
	}

	consumer, err := a.tipConsumer(a.settings.Kafka.TipsURL)
	if err != nil {
		return err
	}

	defer func() {
		_ = consumer.Close()
	}()

	offset := sarama.OffsetNewest
	if c.Bool("from-start") {
		offset = sarama.OffsetOldest
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return consumer.Consume(ctx, offset, func(n *model.TipNotification) error {
		return a.printJSON(n)
	}, func(err error) {
		a.logger.Warnf("[watch] %v", err)
	})
}
