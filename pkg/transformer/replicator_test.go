package transformer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/event"
	"github.com/wlf-engine/wlf/pkg/router"
	"github.com/wlf-engine/wlf/pkg/transformer"
	"github.com/wlf-engine/wlf/pkg/value"
)

func TestReplicatorFansOutToEveryDestination(t *testing.T) {
	r := router.New()
	r.Register("rep", component.KindTransformer)
	r.Register("a", component.KindDispatcher)
	r.Register("b", component.KindDispatcher)

	rep := transformer.NewReplicator("rep", []string{"a", "b"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rep.Run(ctx, r) }()

	in := event.Event{Value: value.String("hello")}
	require.NoError(t, r.SendEvent(ctx, in, "rep"))

	gotA, err := r.PollEvent(ctx, "a")
	require.NoError(t, err)
	gotB, err := r.PollEvent(ctx, "b")
	require.NoError(t, err)

	sa, _ := gotA.Value.AsString()
	sb, _ := gotB.Value.AsString()
	require.Equal(t, "hello", sa)
	require.Equal(t, "hello", sb)
}

func TestReplicatorExitsOnSendError(t *testing.T) {
	r := router.New()
	r.Register("rep", component.KindTransformer)
	// "ghost" is never registered.
	rep := transformer.NewReplicator("rep", []string{"ghost"})

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- rep.Run(ctx, r) }()

	require.NoError(t, r.SendEvent(ctx, event.Event{Value: value.String("x")}, "rep"))

	err := <-done
	require.Error(t, err)
}
