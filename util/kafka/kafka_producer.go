// Package kafka publishes and reads tip notifications on a Kafka topic.
package kafka

import (
	"encoding/binary"
	"net/url"
	"strings"

	"github.com/IBM/sarama"
	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/util"
)

/**
kafka-topics.sh --describe --bootstrap-server localhost:9092 --topic tips

kafka-console-consumer.sh --topic tips --bootstrap-server localhost:9092 --from-beginning
*/

type KafkaProducerI interface {
	Send(key []byte, data []byte) error
	Close() error
}

type SyncKafkaProducer struct {
	Producer   sarama.SyncProducer
	Topic      string
	Partitions int32
}

func (k *SyncKafkaProducer) Close() error {
	if err := k.Producer.Close(); err != nil {
		return errors.NewKafkaError("failed to close Kafka producer", err)
	}

	return nil
}

// Send routes the message to the partition picked by the little endian
// uint32 at the start of key.
func (k *SyncKafkaProducer) Send(key []byte, data []byte) error {
	if len(key) < 4 {
		return errors.NewInvalidArgumentError("kafka key must be at least 4 bytes, got %d", len(key))
	}

	partitions := k.Partitions
	if partitions < 1 {
		partitions = 1
	}

	partition := binary.LittleEndian.Uint32(key) % uint32(partitions) //nolint:gosec // positive

	if _, _, err := k.Producer.SendMessage(&sarama.ProducerMessage{
		Topic:     k.Topic,
		Key:       sarama.ByteEncoder(key),
		Value:     sarama.ByteEncoder(data),
		Partition: int32(partition), //nolint:gosec // below partitions
	}); err != nil {
		return errors.NewKafkaError("failed to send to %s", k.Topic, err)
	}

	return nil
}

// Brokers and topic of a kafka://host1,host2/topic?partitions=1&replication=1 URL.
func Brokers(kafkaURL *url.URL) ([]string, string, error) {
	if kafkaURL == nil || kafkaURL.Host == "" {
		return nil, "", errors.NewConfigurationError("kafka URL has no brokers")
	}

	topic := strings.TrimPrefix(kafkaURL.Path, "/")
	if topic == "" {
		return nil, "", errors.NewConfigurationError("kafka URL %s has no topic", kafkaURL.String())
	}

	return strings.Split(kafkaURL.Host, ","), topic, nil
}

// NewKafkaProducer creates the topic when it does not exist yet and connects
// a sync producer to it.
func NewKafkaProducer(kafkaURL *url.URL) (sarama.ClusterAdmin, KafkaProducerI, error) {
	brokersURL, topic, err := Brokers(kafkaURL)
	if err != nil {
		return nil, nil, err
	}

	config := sarama.NewConfig()
	config.Version = sarama.V2_1_0_0

	clusterAdmin, err := sarama.NewClusterAdmin(brokersURL, config)
	if err != nil {
		return nil, nil, errors.NewKafkaError("error while creating cluster admin", err)
	}

	partitions := util.GetQueryParamInt(kafkaURL, "partitions", 1)
	replicationFactor := util.GetQueryParamInt(kafkaURL, "replication", 1)
	retentionPeriod := util.GetQueryParam(kafkaURL, "retention", "86400000") // 1 day

	if err = clusterAdmin.CreateTopic(topic, &sarama.TopicDetail{
		NumPartitions:     int32(partitions),        //nolint:gosec // config
		ReplicationFactor: int16(replicationFactor), //nolint:gosec // config
		ConfigEntries: map[string]*string{
			"retention.ms": &retentionPeriod,
		},
	}, false); err != nil {
		if !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			_ = clusterAdmin.Close()
			return nil, nil, errors.NewKafkaError("failed to create topic %s", topic, err)
		}
	}

	producer, err := ConnectProducer(brokersURL, topic, int32(partitions)) //nolint:gosec // config
	if err != nil {
		_ = clusterAdmin.Close()
		return nil, nil, errors.NewKafkaError("unable to connect to kafka", err)
	}

	return clusterAdmin, producer, nil
}

func ConnectProducer(brokersURL []string, topic string, partitions int32) (KafkaProducerI, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Partitioner = sarama.NewManualPartitioner

	conn, err := sarama.NewSyncProducer(brokersURL, config)
	if err != nil {
		return nil, err
	}

	return &SyncKafkaProducer{
		Producer:   conn,
		Partitions: partitions,
		Topic:      topic,
	}, nil
}
