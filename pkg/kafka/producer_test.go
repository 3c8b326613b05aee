package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	written []kafkago.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducer(t *testing.T) {
	_, err := NewProducer(Config{})
	assert.Error(t, err)

	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.Empty(t, p.writers)

	_, err = NewProducer(Config{Brokers: []string{"localhost:9092"}, SASLEnabled: true, SASLMechanism: "GSSAPI"})
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	writers := map[string]*fakeWriter{}
	p := newProducer(func(topic string) messageWriter {
		w := &fakeWriter{}
		writers[topic] = w
		return w
	})

	err := p.Publish(context.Background(), "churn.events", Message{
		Key:     []byte("prediction-1"),
		Value:   []byte(`{"risk_level":"high"}`),
		Headers: map[string]string{"event_type": "churn.high_risk.detected"},
	})
	require.NoError(t, err)

	require.Contains(t, writers, "churn.events")
	written := writers["churn.events"].written
	require.Len(t, written, 1)
	assert.Equal(t, "prediction-1", string(written[0].Key))
	assert.Equal(t, []kafkago.Header{{Key: "event_type", Value: []byte("churn.high_risk.detected")}}, written[0].Headers)

	require.NoError(t, p.Publish(context.Background(), "churn.events"))
	assert.Len(t, writers["churn.events"].written, 1)
}

func TestProducer_WriterPerTopic(t *testing.T) {
	p := newProducer(func(string) messageWriter { return &fakeWriter{} })

	w1 := p.getOrCreateWriter("topic-a")
	assert.Same(t, w1, p.getOrCreateWriter("topic-a"))
	assert.NotSame(t, w1, p.getOrCreateWriter("topic-b"))

	require.NoError(t, p.Close())
	assert.True(t, w1.(*fakeWriter).closed)
	assert.Empty(t, p.writers)
}

func TestProducer_PublishError(t *testing.T) {
	p := newProducer(func(string) messageWriter { return &fakeWriter{err: errors.New("broker down")} })

	err := p.Publish(context.Background(), "churn.events", Message{Value: []byte("{}")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "churn.events")
}

type fakeReader struct {
	msgs      []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_HandlesAndCommitsEveryMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		msgs: []kafkago.Message{
			{Topic: "churn.scoring", Offset: 1, Value: []byte("ok"), Headers: []kafkago.Header{{Key: "h", Value: []byte("v")}}},
			{Topic: "churn.scoring", Offset: 2, Value: []byte("bad")},
			{Topic: "churn.scoring", Offset: 3, Value: []byte("ok")},
		},
	}

	var seen []Message
	handler := func(_ context.Context, msg Message) error {
		seen = append(seen, msg)
		if string(msg.Value) == "bad" {
			return errors.New("malformed")
		}
		return nil
	}

	c := newConsumer(reader, "churn.scoring", "churnd", handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, c.Start(ctx))

	require.Len(t, seen, 3)
	assert.Equal(t, "v", seen[0].Headers["h"])
	assert.Equal(t, "churn.scoring", seen[0].Topic)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	assert.NoError(t, c.Close())
}

func TestConsumer_ShutdownLeavesMessageUncommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		msgs: []kafkago.Message{
			{Topic: "churn.scoring", Offset: 1, Value: []byte("ok")},
			{Topic: "churn.scoring", Offset: 2, Value: []byte("slow")},
			{Topic: "churn.scoring", Offset: 3, Value: []byte("ok")},
		},
	}
	handler := func(ctx context.Context, msg Message) error {
		if string(msg.Value) == "slow" {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	c := newConsumer(reader, "churn.scoring", "churnd", handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, c.Start(ctx))

	assert.Equal(t, []int64{1}, reader.committed)
	assert.Len(t, reader.msgs, 1)
}

func TestConfig_Mechanism(t *testing.T) {
	for _, name := range []string{"", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		t.Run(name, func(t *testing.T) {
			m, err := Config{SASLMechanism: name, SASLUsername: "u", SASLPassword: "p"}.mechanism()
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}

	d, err := Config{Brokers: []string{"b"}}.dialer()
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = Config{Brokers: []string{"b"}, TLS: true}.dialer()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.NotNil(t, d.TLS)
}
