package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/log"
	"github.com/wlf-engine/wlf/pkg/metrics"
)

// Compression names accepted by KafkaConfig.Compression.
const (
	CompressionNone   = "none"
	CompressionGzip   = "gzip"
	CompressionSnappy = "snappy"
)

// KafkaConfig configures a Kafka dispatcher.
type KafkaConfig struct {
	ID               string
	Topic            string // template, default "wasm-log-flex"
	BootstrapBrokers []string
	Compression      string // one of the Compression* constants, default none
}

// Kafka is the dispatcher component producing events to a Kafka/Redpanda
// cluster, materializing the topic name from a per-event template and
// auto-creating topics it hasn't seen before.
type Kafka struct {
	cfg    KafkaConfig
	client *kgo.Client
	admin  *kadm.Client
	topics map[string]struct{}
	logger zerolog.Logger
}

func compressionCodec(name string) kgo.CompressionCodec {
	switch name {
	case CompressionGzip:
		return kgo.GzipCompression()
	case CompressionSnappy:
		return kgo.SnappyCompression()
	default:
		return kgo.NoCompression()
	}
}

// NewKafka constructs a Kafka dispatcher. The client connects lazily;
// actual broker I/O happens in Run.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if cfg.Topic == "" {
		cfg.Topic = "wasm-log-flex"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.BootstrapBrokers...),
		kgo.ProducerBatchCompression(compressionCodec(cfg.Compression)),
		kgo.RecordPartitioner(kgo.ManualPartitioner()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Kafka{
		cfg:    cfg,
		client: client,
		admin:  kadm.NewClient(client),
		topics: make(map[string]struct{}),
		logger: log.WithComponent(cfg.ID),
	}, nil
}

func (k *Kafka) ID() string           { return k.cfg.ID }
func (k *Kafka) Kind() component.Kind { return component.KindDispatcher }

func (k *Kafka) refreshTopics(ctx context.Context) error {
	details, err := k.admin.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	for name := range details {
		k.topics[name] = struct{}{}
	}
	return nil
}

func (k *Kafka) ensureTopic(ctx context.Context, topic string) error {
	if _, ok := k.topics[topic]; ok {
		return nil
	}

	resp, err := k.admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create kafka topic %s: %w", topic, err)
	}
	if r, ok := resp[topic]; ok && r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create kafka topic %s: %w", topic, r.Err)
	}

	return k.refreshTopics(ctx)
}

func (k *Kafka) Run(ctx context.Context, r component.Router) error {
	defer k.client.Close()
	defer k.admin.Close()

	if err := k.refreshTopics(ctx); err != nil {
		return err
	}

	for {
		e, err := r.PollEvent(ctx, k.cfg.ID)
		if err != nil {
			return err
		}

		topic, err := Substitute(k.cfg.Topic, e.Value)
		if err != nil {
			metrics.TemplateSubstitutionFailureTotal.WithLabelValues(k.cfg.ID).Inc()
			k.logger.Warn().Err(err).Msg("skipping event: topic template failed")
			continue
		}

		if err := k.ensureTopic(ctx, topic); err != nil {
			metrics.DispatchFailureTotal.WithLabelValues(k.cfg.ID).Inc()
			return err
		}

		payload, err := json.Marshal(e.Value)
		if err != nil {
			metrics.DispatchFailureTotal.WithLabelValues(k.cfg.ID).Inc()
			return fmt.Errorf("marshal event: %w", err)
		}

		record := &kgo.Record{
			Topic:     topic,
			Partition: 0,
			Value:     payload,
			Timestamp: time.Now().UTC(),
		}
		if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			metrics.DispatchFailureTotal.WithLabelValues(k.cfg.ID).Inc()
			return fmt.Errorf("produce to kafka topic %s: %w", topic, err)
		}
		metrics.DispatchSuccessTotal.WithLabelValues(k.cfg.ID).Inc()
		log.WithTopic(topic).Debug().Msg("produced event")
	}
}
