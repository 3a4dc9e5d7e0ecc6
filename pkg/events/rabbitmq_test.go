package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQPublisherPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "speaker_match.events", nil)

	event := New(TypeRequestStatusChanged, map[string]string{"request_id": "r-1", "to": "Approved"})
	require.NoError(t, p.Publish(context.Background(), event))

	assert.Equal(t, "speaker_match.events", ch.exchange)
	assert.Equal(t, TypeRequestStatusChanged, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, event.ID, ch.msg.MessageId)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, TypeRequestStatusChanged, decoded["type"])
	assert.Equal(t, "Approved", decoded["payload"].(map[string]interface{})["to"])
}

func TestRabbitMQPublisherPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, "x", nil)

	err := p.Publish(context.Background(), New(TypeRequestCreated, nil))
	assert.ErrorContains(t, err, "publish request.created")
}

func TestRabbitMQPublisherClose(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "x", nil)
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(TypeRequestCreated, nil)))
	assert.NoError(t, p.Close())
}
