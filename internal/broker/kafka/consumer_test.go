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
	commitErr error
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
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_Consume_CallsHandlerAndCommits(t *testing.T) {
	fr := &fakeReader{
		msgs: []kafka.Message{
			{Key: []byte("k1"), Value: []byte("v1")},
			{Key: []byte("k2"), Value: []byte("v2")},
		},
		err: errors.New("stop"),
	}
	c := newConsumerWithReader(fr)

	var keys []string
	err := c.Consume(context.Background(), func(_ context.Context, k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch message")
	require.Equal(t, []string{"k1", "k2"}, keys)
	require.Len(t, fr.committed, 2)
}

func TestConsumer_Consume_HandlerErrorStopsWithoutCommit(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{{Key: []byte("k"), Value: []byte("v")}}}
	c := newConsumerWithReader(fr)

	want := errors.New("handler failed")
	err := c.Consume(context.Background(), func(_ context.Context, k, v []byte) error { return want })
	require.ErrorIs(t, err, want)
	require.Empty(t, fr.committed)
}

func TestConsumer_Consume_CommitError(t *testing.T) {
	fr := &fakeReader{
		msgs:      []kafka.Message{{Key: []byte("k"), Value: []byte("v")}},
		commitErr: errors.New("broker gone"),
	}
	c := newConsumerWithReader(fr)

	err := c.Consume(context.Background(), func(_ context.Context, k, v []byte) error { return nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "commit message")
}

func TestNewConsumer_Close(t *testing.T) {
	c := NewConsumer([]string{"localhost:0"}, "t", "g")
	require.NotNil(t, c)
	require.NoError(t, c.Close())
}
