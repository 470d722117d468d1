package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-api-auth/internal/config"
	"github.com/go-api-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublishAPI struct{ mock.Mock }

func (m *mockPublishAPI) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestNewPublisher_RequiresTopic(t *testing.T) {
	_, err := NewPublisher(context.Background(), &config.Config{AWSRegion: "us-east-1"})
	assert.ErrorIs(t, err, ErrNoTopic)
}

func TestPublish_SendsJSONWithAttribute(t *testing.T) {
	m := &mockPublishAPI{}
	var captured *sns.PublishInput
	m.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{}, nil)

	p := newPublisher(m, "arn:aws:sns:us-east-1:000000000000:auth-events")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.Publish(context.Background(), domain.Event{Type: domain.EventUserRegistered, Email: "a@b.com", UserID: 1, OccurredAt: at})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:auth-events", aws.ToString(captured.TopicArn))
	assert.Equal(t, "user.registered", aws.ToString(captured.MessageAttributes["event_type"].StringValue))

	var got domain.Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(captured.Message)), &got))
	assert.Equal(t, int64(1), got.UserID)
	assert.Equal(t, domain.EventUserRegistered, got.Type)
}

func TestPublish_WrapsError(t *testing.T) {
	m := &mockPublishAPI{}
	m.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("topic not found"))

	err := newPublisher(m, "arn").Publish(context.Background(), domain.Event{Type: domain.EventCodeSuperseded})
	assert.ErrorContains(t, err, "publish verification.code_superseded")
}
