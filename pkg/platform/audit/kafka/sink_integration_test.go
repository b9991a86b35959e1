//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "atelier/pkg/platform/audit"
	auditkafka "atelier/pkg/platform/audit/kafka"
	"atelier/pkg/testutil/containers"
)

const testTopic = "audit-events-test"

type KafkaSinkSuite struct {
	suite.Suite
	broker string
	sink   *auditkafka.Sink
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.broker = mgr.GetRedpanda(s.T()).Broker

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sink, err := auditkafka.NewSink(ctx, []string{s.broker}, testTopic)
	s.Require().NoError(err)
	s.sink = sink
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.sink != nil {
		s.Require().NoError(s.sink.Close())
	}
}

func (s *KafkaSinkSuite) TestWriteDeliversEvent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := audit.Event{
		Category:  audit.CategoryContent,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		UserID:    "user-1",
		ActorID:   "admin-1",
		Subject:   "article-42",
		Action:    string(audit.EventArticleDeleted),
		RequestID: "req-123",
	}
	s.Require().NoError(s.sink.Write(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().NotEmpty(records)
	record := records[len(records)-1]

	s.Equal("user-1", string(record.Key), "records are keyed by user so a trail stays ordered")

	var got struct {
		Category  string    `json:"category"`
		Timestamp time.Time `json:"timestamp"`
		UserID    string    `json:"user_id"`
		ActorID   string    `json:"actor_id"`
		Subject   string    `json:"subject"`
		Action    string    `json:"action"`
		RequestID string    `json:"request_id"`
	}
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal("content", got.Category)
	s.Equal("user-1", got.UserID)
	s.Equal("admin-1", got.ActorID)
	s.Equal("article-42", got.Subject)
	s.Equal("article_deleted", got.Action)
	s.Equal("req-123", got.RequestID)
	s.True(event.Timestamp.Equal(got.Timestamp))
}

func (s *KafkaSinkSuite) TestNewSinkIsIdempotentOnExistingTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	again, err := auditkafka.NewSink(ctx, []string{s.broker}, testTopic)
	s.Require().NoError(err)
	s.Require().NoError(again.Close())
}
