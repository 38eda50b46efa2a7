package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/report"
)

// Config holds the broker list and destination topic.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher emits one message per article record of a run.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

var _ ports.ResultSink = (*Publisher)(nil)

// NewPublisher dials the brokers with a synchronous producer.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	return NewPublisherWithProducer(producer, cfg.Topic), nil
}

// NewPublisherWithProducer wraps an existing producer.
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Name() string {
	return "kafka"
}

// Publish sends records keyed by run id and position so replays land on the same partition.
func (p *Publisher) Publish(ctx context.Context, run domain.Run) error {
	doc := report.NewDocument(run)
	msgs := make([]*sarama.ProducerMessage, 0, len(doc.Records))
	for _, rec := range doc.Records {
		payload, err := json.Marshal(recordMessage{RunID: run.ID, SiteURL: run.SiteURL, Record: rec})
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", rec.Position, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(messageKey(run.ID, rec.Position)),
			Value: sarama.ByteEncoder(payload),
			Headers: []sarama.RecordHeader{
				{Key: []byte("run_id"), Value: []byte(run.ID)},
			},
		})
	}

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("publish run %s: %w", run.ID, err)
		}
		if _, _, err := p.producer.SendMessage(msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the producer.
func (p *Publisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

type recordMessage struct {
	RunID   string        `json:"runId"`
	SiteURL string        `json:"siteUrl"`
	Record  report.Record `json:"record"`
}

func messageKey(runID string, position int) string {
	return runID + "/" + strconv.Itoa(position)
}
