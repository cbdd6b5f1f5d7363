package transformer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/log"
)

// Replicator fans one inbox out to multiple destinations, deep-copying
// the event for each so that a dispatcher mutating its own copy (there
// currently are none that do, but the contract holds regardless) cannot
// affect a sibling destination.
type Replicator struct {
	id           string
	destinations []string
	logger       zerolog.Logger
}

// NewReplicator returns a Replicator transformer forwarding every event
// it receives to each of destinations, in order.
func NewReplicator(id string, destinations []string) *Replicator {
	return &Replicator{id: id, destinations: destinations, logger: log.WithComponent(id)}
}

func (rp *Replicator) ID() string           { return rp.id }
func (rp *Replicator) Kind() component.Kind { return component.KindTransformer }

func (rp *Replicator) Run(ctx context.Context, r component.Router) error {
	for {
		e, err := r.PollEvent(ctx, rp.id)
		if err != nil {
			return err
		}
		for _, dest := range rp.destinations {
			if err := r.SendEvent(ctx, e.Clone(), dest); err != nil {
				rp.logger.Error().Err(err).Str("destination", dest).Msg("replicator send failed")
				return err
			}
		}
	}
}
