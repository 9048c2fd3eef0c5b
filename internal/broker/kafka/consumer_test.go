package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	err       error
	i         int
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	return kafka.Message{}, errors.New("eof")
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func request(offset int64) kafka.Message {
	return kafka.Message{
		Topic:  "report.requested",
		Offset: offset,
		Key:    []byte("req-1"),
		Value:  []byte(`{"request_id":"req-1","carrier":"Acme"}`),
	}
}

func TestConsumer_Consume_CommitsEachHandledRequest(t *testing.T) {
	fr := &fakeReader{
		msgs: []kafka.Message{request(1), request(2)},
		err:  errors.New("stop"),
	}
	c := newConsumerWithReader(fr)

	var keys []string
	err := c.Consume(context.Background(), func(k, v []byte) error {
		keys = append(keys, string(k))
		require.Contains(t, string(v), `"carrier":"Acme"`)
		return nil
	})
	require.ErrorContains(t, err, "fetch message")
	require.Equal(t, []string{"req-1", "req-1"}, keys)
	require.Len(t, fr.committed, 2)
}

func TestConsumer_Consume_RetriesThenSucceeds(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{request(7)}, err: errors.New("stop")}
	c := newConsumerWithReader(fr).WithRetry(3, 0)

	calls := 0
	err := c.Consume(context.Background(), func(k, v []byte) error {
		calls++
		if calls < 3 {
			return errors.New("kafka publish failed")
		}
		return nil
	})
	require.ErrorContains(t, err, "fetch message")
	require.Equal(t, 3, calls)
	require.Len(t, fr.committed, 1)
}

func TestConsumer_Consume_HandlerErrorStopsWithoutCommit(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{request(4)}}
	c := newConsumerWithReader(fr).WithRetry(2, 0)

	want := errors.New("handler failed")
	calls := 0
	err := c.Consume(context.Background(), func(k, v []byte) error {
		calls++
		return want
	})
	require.ErrorIs(t, err, want)
	require.ErrorContains(t, err, "offset 4")
	require.Equal(t, 2, calls)
	require.Empty(t, fr.committed)
}

func TestConsumer_Consume_CanceledHandlerIsNotRetried(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{request(1)}}
	c := newConsumerWithReader(fr).WithRetry(5, 0)

	calls := 0
	err := c.Consume(context.Background(), func(k, v []byte) error {
		calls++
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestConsumer_Consume_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fr := &fakeReader{err: errors.New("fetch interrupted")}
	c := newConsumerWithReader(fr)

	err := c.Consume(ctx, func(k, v []byte) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.NotContains(t, err.Error(), "fetch message")
}

func TestNewConsumer_Close(t *testing.T) {
	c := NewConsumer([]string{"localhost:0"}, "report.requested", "score-api").WithLogger(nil)
	require.NotNil(t, c)
	require.NoError(t, c.Close())
}
