//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	id "carebook/pkg/domain"
	audit "carebook/pkg/platform/audit"
	"carebook/pkg/testutil/containers"
)

type SinkSuite struct {
	suite.Suite
	broker string
}

func TestSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SinkSuite))
}

func (s *SinkSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
}

func (s *SinkSuite) TestAppendProducesRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sink, err := NewSink(ctx, []string{s.broker}, WithTopic("carebook.audit.test"))
	s.Require().NoError(err)
	defer sink.Close()

	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Now().UTC(),
		UserID:    id.UserID("4"),
		Action:    string(audit.EventPaymentCompleted),
	}
	s.Require().NoError(sink.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(sink.Topic()),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event.Action, got.Action)
	s.Equal("4", string(records[0].Key))
}

func (s *SinkSuite) TestNewSinkIsIdempotentOnTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for range 2 {
		sink, err := NewSink(ctx, []string{s.broker}, WithTopic("carebook.audit.twice"))
		s.Require().NoError(err)
		sink.Close()
	}
}
