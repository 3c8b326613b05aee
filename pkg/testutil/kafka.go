package testutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// KafkaImage is the single-node broker used by integration tests.
const KafkaImage = "confluentinc/confluent-local:7.6.1"

// KafkaContainer is a throwaway broker for event and scoring tests.
type KafkaContainer struct {
	Container *kafka.KafkaContainer
	Brokers   []string
}

// StartKafka runs a broker and creates the given single-partition topics.
// Teardown is registered on t.
func StartKafka(ctx context.Context, t *testing.T, topics ...string) *KafkaContainer {
	t.Helper()

	ctr, err := kafka.Run(ctx, KafkaImage, kafka.WithClusterID("churn-test"))
	kc := &KafkaContainer{Container: ctr}
	t.Cleanup(func() { kc.terminate(t) })
	if err != nil {
		t.Fatalf("start kafka: %v", err)
	}

	if kc.Brokers, err = ctr.Brokers(ctx); err != nil {
		t.Fatalf("kafka brokers: %v", err)
	}
	if len(topics) > 0 {
		if err := kc.createTopics(ctx, topics); err != nil {
			t.Fatalf("create topics %v: %v", topics, err)
		}
	}
	return kc
}

// Topics must be created on the controller, which may not be the bootstrap broker.
func (kc *KafkaContainer) createTopics(ctx context.Context, topics []string) error {
	conn, err := kafkago.DialContext(ctx, "tcp", kc.Brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	ctrl, err := kafkago.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}
	return ctrl.CreateTopics(configs...)
}

func (kc *KafkaContainer) terminate(t *testing.T) {
	t.Helper()
	if kc.Container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := kc.Container.Terminate(ctx); err != nil {
		t.Logf("terminate kafka container: %v", err)
	}
}
