package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustbind/internal/platform/config"
	"trustbind/pkg/domain"
)

// KafkaFeed consumes credential lifecycle events from the oracle's kafka
// topics. Records are keyed by credential id, so per-id ordering is preserved
// end to end: the oracle partitions by key and the reconciler shards by id.
type KafkaFeed struct {
	client       *kgo.Client
	claimedTopic string
	revokedTopic string
	log          zerolog.Logger
}

// NewKafkaFeed connects a consumer-group client and verifies both lifecycle
// topics exist, so a misconfigured deployment fails at startup instead of
// polling an empty subscription forever.
func NewKafkaFeed(ctx context.Context, cfg config.KafkaConfig, log zerolog.Logger) (*KafkaFeed, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.ClaimedTopic, cfg.RevokedTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	details, err := adm.ListTopics(ctx, cfg.ClaimedTopic, cfg.RevokedTopic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("list kafka topics: %w", err)
	}
	for _, topic := range []string{cfg.ClaimedTopic, cfg.RevokedTopic} {
		if !details.Has(topic) {
			client.Close()
			return nil, fmt.Errorf("kafka topic %q does not exist", topic)
		}
	}

	return &KafkaFeed{
		client:       client,
		claimedTopic: cfg.ClaimedTopic,
		revokedTopic: cfg.RevokedTopic,
		log:          log.With().Str("component", "oracle_feed").Logger(),
	}, nil
}

func (f *KafkaFeed) Events(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		for {
			fetches := f.client.PollFetches(ctx)
			if fetches.IsClientClosed() || ctx.Err() != nil {
				return
			}
			fetches.EachError(func(topic string, partition int32, err error) {
				if !errors.Is(err, context.Canceled) {
					f.log.Warn().Err(err).Str("topic", topic).Int32("partition", partition).
						Msg("fetch error")
				}
			})
			fetches.EachRecord(func(record *kgo.Record) {
				ev, err := f.toEvent(record)
				if err != nil {
					f.log.Warn().Err(err).Str("topic", record.Topic).Msg("dropping malformed record")
					return
				}
				select {
				case ch <- ev:
				case <-ctx.Done():
				}
			})
		}
	}()
	return ch, nil
}

func (f *KafkaFeed) toEvent(record *kgo.Record) (Event, error) {
	id, err := domain.ParseCredentialID(string(record.Key))
	if err != nil {
		return Event{}, fmt.Errorf("record key: %w", err)
	}
	var kind EventKind
	switch record.Topic {
	case f.claimedTopic:
		kind = EventClaimed
	case f.revokedTopic:
		kind = EventRevoked
	default:
		return Event{}, fmt.Errorf("unexpected topic %q", record.Topic)
	}
	return Event{Kind: kind, CredentialID: id, EmittedAt: record.Timestamp}, nil
}

// Close tears down the kafka client.
func (f *KafkaFeed) Close() {
	f.client.Close()
}
