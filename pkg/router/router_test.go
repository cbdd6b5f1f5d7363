package router_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/event"
	"github.com/wlf-engine/wlf/pkg/router"
	"github.com/wlf-engine/wlf/pkg/value"
)

func TestRouterPlumbing(t *testing.T) {
	r := router.New()
	r.Register("c", component.KindCollector)
	r.Register("t", component.KindTransformer)
	r.Register("d", component.KindDispatcher)

	ctx := context.Background()
	e := event.Event{Value: value.String("hello")}

	require.NoError(t, r.SendEvent(ctx, e, "t"))
	got, err := r.PollEvent(ctx, "t")
	require.NoError(t, err)
	s, _ := got.Value.AsString()
	assert.Equal(t, "hello", s)

	err = r.SendEvent(ctx, e, "c")
	assert.ErrorIs(t, err, router.ErrWrongComponentKind)
}

func TestSendToUnregisteredComponent(t *testing.T) {
	r := router.New()
	err := r.SendEvent(context.Background(), event.Event{}, "ghost")
	var notFound *router.ErrNoSuchComponent
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ID)
}

func TestPollFromCollectorIsWrongKind(t *testing.T) {
	r := router.New()
	r.Register("c", component.KindCollector)
	_, err := r.PollEvent(context.Background(), "c")
	assert.ErrorIs(t, err, router.ErrWrongComponentKind)
}

func TestDuplicateRegistrationIsNoOp(t *testing.T) {
	r := router.New()
	r.Register("t", component.KindTransformer)
	r.Register("t", component.KindCollector) // should be ignored

	ctx := context.Background()
	// if the second registration had won, sending would fail with
	// WrongComponentKind because t would now be a collector.
	err := r.SendEvent(ctx, event.Event{}, "t")
	assert.NoError(t, err)
}

func TestFIFOPerSenderTarget(t *testing.T) {
	r := router.New()
	r.Register("t", component.KindTransformer)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, r.SendEvent(ctx, event.Event{Value: value.Int(int64(i))}, "t"))
	}
	for i := 0; i < 10; i++ {
		got, err := r.PollEvent(ctx, "t")
		require.NoError(t, err)
		n, _ := got.Value.AsInt()
		assert.Equal(t, int64(i), n)
	}
}

func TestPollBlocksUntilSend(t *testing.T) {
	r := router.New()
	r.Register("t", component.KindTransformer)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err := r.PollEvent(ctx, "t")
		assert.NoError(t, err)
		s, _ := got.Value.AsString()
		assert.Equal(t, "late", s)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, r.SendEvent(ctx, event.Event{Value: value.String("late")}, "t"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PollEvent did not observe the late send")
	}
}

func TestPollReturnsInternalOnClose(t *testing.T) {
	r := router.New()
	r.Register("t", component.KindTransformer)
	r.Close("t")
	_, err := r.PollEvent(context.Background(), "t")
	assert.True(t, errors.Is(err, router.ErrInternal))
}

func TestPollCanceledByContext(t *testing.T) {
	r := router.New()
	r.Register("t", component.KindTransformer)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := r.PollEvent(ctx, "t")
	assert.Error(t, err)
}
