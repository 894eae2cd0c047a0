package kafka

import (
	"context"
	"encoding/binary"
	"net/url"

	"github.com/IBM/sarama"
	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TipKey is the 4 byte little endian height the notifications are keyed by.
func TipKey(height uint32) []byte {
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, height)

	return key
}

type TipProducer struct {
	producer KafkaProducerI
}

func NewTipProducer(producer KafkaProducerI) *TipProducer {
	return &TipProducer{producer: producer}
}

func (p *TipProducer) Publish(_ context.Context, n *model.TipNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return errors.NewProcessingError("failed to encode tip notification", err)
	}

	return p.producer.Send(TipKey(n.Height), data)
}

func (p *TipProducer) Close() error {
	return p.producer.Close()
}

// TipConsumer reads notifications from every partition of the tips topic.
type TipConsumer struct {
	consumer sarama.Consumer
	topic    string
}

func NewTipConsumer(kafkaURL *url.URL) (*TipConsumer, error) {
	brokers, topic, err := Brokers(kafkaURL)
	if err != nil {
		return nil, err
	}

	consumer, err := sarama.NewConsumer(brokers, sarama.NewConfig())
	if err != nil {
		return nil, errors.NewKafkaError("unable to connect to kafka", err)
	}

	return NewTipConsumerFrom(consumer, topic), nil
}

func NewTipConsumerFrom(consumer sarama.Consumer, topic string) *TipConsumer {
	return &TipConsumer{consumer: consumer, topic: topic}
}

// Consume calls fn for every notification read from offset on, until ctx is
// done or fn returns an error. Undecodable messages go to onError and are
// skipped.
func (c *TipConsumer) Consume(ctx context.Context, offset int64, fn func(*model.TipNotification) error, onError func(error)) error {
	partitions, err := c.consumer.Partitions(c.topic)
	if err != nil {
		return errors.NewKafkaError("failed to list partitions of %s", c.topic, err)
	}

	messages := make(chan *sarama.ConsumerMessage)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, partition := range partitions {
		pc, err := c.consumer.ConsumePartition(c.topic, partition, offset)
		if err != nil {
			return errors.NewKafkaError("failed to consume %s/%d", c.topic, partition, err)
		}

		go func(pc sarama.PartitionConsumer) {
			defer func() {
				_ = pc.Close()
			}()

			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-pc.Messages():
					if !ok {
						return
					}

					select {
					case messages <- msg:
					case <-ctx.Done():
						return
					}
				}
			}
		}(pc)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-messages:
			var n model.TipNotification
			if err := json.Unmarshal(msg.Value, &n); err != nil {
				if onError != nil {
					onError(errors.NewProcessingError("undecodable tip notification at %s/%d/%d", msg.Topic, msg.Partition, msg.Offset, err))
				}

				continue
			}

			if err := fn(&n); err != nil {
				return err
			}
		}
	}
}

func (c *TipConsumer) Close() error {
	if err := c.consumer.Close(); err != nil {
		return errors.NewKafkaError("failed to close Kafka consumer", err)
	}

	return nil
}
