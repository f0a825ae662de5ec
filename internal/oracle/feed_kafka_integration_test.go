//go:build integration

package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustbind/internal/platform/config"
	"trustbind/pkg/testutil/containers"
)

const (
	testClaimedTopic = "credential.claimed"
	testRevokedTopic = "credential.revoked"
)

type KafkaFeedSuite struct {
	suite.Suite
	broker   string
	producer *kgo.Client
	ctx      context.Context
}

func TestKafkaFeedSuite(t *testing.T) {
	suite.Run(t, new(KafkaFeedSuite))
}

func (s *KafkaFeedSuite) SetupSuite() {
	s.ctx = context.Background()
	rp := containers.NewRedpandaContainer(s.T())
	s.broker = rp.Broker

	var err error
	s.producer, err = kgo.NewClient(kgo.SeedBrokers(s.broker))
	s.Require().NoError(err)
	s.T().Cleanup(s.producer.Close)

	adm := kadm.NewClient(s.producer)
	_, err = adm.CreateTopics(s.ctx, 1, 1, nil, testClaimedTopic, testRevokedTopic)
	s.Require().NoError(err)
}

func (s *KafkaFeedSuite) feedConfig() config.KafkaConfig {
	return config.KafkaConfig{
		Brokers:      []string{s.broker},
		GroupID:      "trustbind-test",
		ClaimedTopic: testClaimedTopic,
		RevokedTopic: testRevokedTopic,
	}
}

func (s *KafkaFeedSuite) produce(topic string, key string) {
	res := s.producer.ProduceSync(s.ctx, &kgo.Record{Topic: topic, Key: []byte(key)})
	s.Require().NoError(res.FirstErr())
}

func (s *KafkaFeedSuite) TestNewKafkaFeed() {
	s.Run("refuses to start against a missing topic", func() {
		cfg := s.feedConfig()
		cfg.ClaimedTopic = "credential.claimed.missing"
		_, err := NewKafkaFeed(s.ctx, cfg, zerolog.Nop())
		s.Error(err)
	})
}

func (s *KafkaFeedSuite) TestEvents() {
	feed, err := NewKafkaFeed(s.ctx, s.feedConfig(), zerolog.Nop())
	s.Require().NoError(err)
	s.T().Cleanup(feed.Close)

	ctx, cancel := context.WithCancel(s.ctx)
	s.T().Cleanup(cancel)
	events, err := feed.Events(ctx)
	s.Require().NoError(err)

	s.Run("maps topics to lifecycle kinds and keys to credential ids", func() {
		s.produce(testClaimedTopic, cid(1).String())
		s.produce(testRevokedTopic, cid(2).String())

		got := map[EventKind]bool{}
		for len(got) < 2 {
			select {
			case ev := <-events:
				switch ev.Kind {
				case EventClaimed:
					s.Equal(cid(1), ev.CredentialID)
				case EventRevoked:
					s.Equal(cid(2), ev.CredentialID)
				}
				s.False(ev.EmittedAt.IsZero())
				got[ev.Kind] = true
			case <-time.After(30 * time.Second):
				s.FailNow("timed out waiting for feed events")
			}
		}
	})

	s.Run("malformed record keys are dropped, later records still arrive", func() {
		s.produce(testClaimedTopic, "not-a-credential-id")
		s.produce(testClaimedTopic, cid(3).String())

		select {
		case ev := <-events:
			s.Equal(EventClaimed, ev.Kind)
			s.Equal(cid(3), ev.CredentialID)
		case <-time.After(30 * time.Second):
			s.FailNow("timed out waiting for feed event")
		}
	})
}
