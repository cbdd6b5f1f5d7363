package transformer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/event"
	"github.com/wlf-engine/wlf/pkg/router"
	"github.com/wlf-engine/wlf/pkg/transformer"
	"github.com/wlf-engine/wlf/pkg/value"
)

func strp(s string) *string { return &s }

func eventWith(database, table string) value.Value {
	return value.Object(
		value.Pair{Key: "meta", Value: value.Object(value.Pair{Key: "database", Value: value.String(database)})},
		value.Pair{Key: "sql", Value: value.Object(value.Pair{Key: "table", Value: value.String(table)})},
	)
}

func TestEvaluateFilterPrecedence(t *testing.T) {
	rules := []transformer.Rule{
		{Database: "d1", Table: nil, Include: false},
		{Database: "d1", Table: strp("t1"), Include: true},
	}

	assert.True(t, transformer.Evaluate(rules, eventWith("d1", "t1")))
	assert.False(t, transformer.Evaluate(rules, eventWith("d1", "t2")))
}

func TestEvaluateDefaultsToPass(t *testing.T) {
	assert.True(t, transformer.Evaluate(nil, eventWith("d1", "t1")))
}

func TestEvaluateNonMatchingDatabaseIsNoOp(t *testing.T) {
	rules := []transformer.Rule{{Database: "other", Table: nil, Include: false}}
	assert.True(t, transformer.Evaluate(rules, eventWith("d1", "t1")))
}

func TestEvaluateMissingDatabaseFieldKeepsState(t *testing.T) {
	rules := []transformer.Rule{{Database: "d1", Table: nil, Include: false}}
	assert.True(t, transformer.Evaluate(rules, value.Object()))
}

func TestFilterRunDropsAndForwards(t *testing.T) {
	r := router.New()
	r.Register("filter", component.KindTransformer)
	r.Register("sink", component.KindDispatcher)

	f := transformer.NewFilter("filter", "sink", []transformer.Rule{
		{Database: "d1", Table: nil, Include: false},
		{Database: "d1", Table: strp("t1"), Include: true},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx, r) }()

	require.NoError(t, r.SendEvent(ctx, event.Event{Value: eventWith("d1", "t1")}, "filter"))
	require.NoError(t, r.SendEvent(ctx, event.Event{Value: eventWith("d1", "t2")}, "filter"))
	require.NoError(t, r.SendEvent(ctx, event.Event{Value: eventWith("d1", "t1")}, "filter"))

	got, err := r.PollEvent(ctx, "sink")
	require.NoError(t, err)
	db, _ := got.Value.Pointer("/meta/database")
	s, _ := db.AsString()
	assert.Equal(t, "d1", s)

	select {
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
}
