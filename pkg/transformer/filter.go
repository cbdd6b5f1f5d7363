// Package transformer implements the two transformer components that sit
// between a collector and a dispatcher: Filter, which drops or passes
// events by database/table rule, and Replicator, a fan-out to multiple
// destinations.
package transformer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/event"
	"github.com/wlf-engine/wlf/pkg/log"
	"github.com/wlf-engine/wlf/pkg/value"
)

// Rule is one entry of a Filter's rule list. Table == nil means "every
// table in Database"; this is the canonical Option<table> form — the
// wildcard-string ("*") variant seen in one historical form of this
// codebase is not implemented, since nil already expresses the same
// thing.
type Rule struct {
	Database string
	Table    *string
	Include  bool
}

// Filter drops or passes events according to an ordered rule list,
// evaluated as a left fold starting from "pass" (true). Only matching
// rules change the running state; a non-matching rule is a no-op, so
// declaration order determines precedence only among overlapping
// predicates.
type Filter struct {
	id          string
	destination string
	rules       []Rule
	logger      zerolog.Logger
}

// NewFilter returns a Filter transformer reading from its own inbox and
// forwarding passed events to destination.
func NewFilter(id, destination string, rules []Rule) *Filter {
	return &Filter{id: id, destination: destination, rules: rules, logger: log.WithComponent(id)}
}

func (f *Filter) ID() string           { return f.id }
func (f *Filter) Kind() component.Kind { return component.KindTransformer }

func (f *Filter) Run(ctx context.Context, r component.Router) error {
	for {
		e, err := r.PollEvent(ctx, f.id)
		if err != nil {
			return err
		}
		if !Evaluate(f.rules, e.Value) {
			f.logger.Debug().Msg("event dropped by filter rules")
			continue
		}
		if err := r.SendEvent(ctx, e, f.destination); err != nil {
			return err
		}
	}
}

// Evaluate folds rules left-to-right over event, starting from true
// (pass by default).
func Evaluate(rules []Rule, ev value.Value) bool {
	state := true
	for _, rule := range rules {
		db, ok := eventField(ev, "/meta/database")
		if !ok || db != rule.Database {
			continue
		}
		if rule.Table == nil {
			state = rule.Include
			continue
		}
		table, ok := eventField(ev, "/sql/table")
		if !ok || table != *rule.Table {
			continue
		}
		state = rule.Include
	}
	return state
}

func eventField(ev value.Value, pointer string) (string, bool) {
	field, ok := ev.Pointer(pointer)
	if !ok {
		return "", false
	}
	return field.AsString()
}
