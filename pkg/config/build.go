package config

import (
	"fmt"

	"github.com/wlf-engine/wlf/pkg/collector"
	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/dispatcher"
	"github.com/wlf-engine/wlf/pkg/transformer"
)

// Build turns a parsed Pipeline into the concrete components cmd/wlf
// registers with the router and runs. Registration order does not
// matter; the router treats its registry as read-only once components
// start (§5's setup-phase-only mutation rule).
func Build(p *Pipeline) ([]component.Component, error) {
	var components []component.Component

	for _, c := range p.Collectors {
		switch c.Type {
		case "Binlog":
			components = append(components, collector.New(collector.Config{
				ID:          c.ID,
				Destination: c.Destination,
				Host:        c.Host,
				Port:        c.Port,
				User:        c.User,
				Password:    c.Password,
			}))
		default:
			return nil, fmt.Errorf("unknown collector type %q", c.Type)
		}
	}

	for _, t := range p.Transformers {
		switch t.Type {
		case "BinlogFilter":
			rules := make([]transformer.Rule, 0, len(t.Rules))
			for _, rc := range t.Rules {
				rules = append(rules, transformer.Rule{Database: rc.Database, Table: rc.Table, Include: rc.Include})
			}
			components = append(components, transformer.NewFilter(t.ID, t.Destination, rules))
		case "EventReplicator":
			components = append(components, transformer.NewReplicator(t.ID, t.Destinations))
		default:
			return nil, fmt.Errorf("unknown transformer type %q", t.Type)
		}
	}

	for _, d := range p.Dispatchers {
		switch d.Type {
		case "Kafka":
			k, err := dispatcher.NewKafka(dispatcher.KafkaConfig{
				ID:               d.ID,
				Topic:            d.Topic,
				BootstrapBrokers: d.BootstrapBrokers,
				Compression:      d.Compression,
			})
			if err != nil {
				return nil, fmt.Errorf("build kafka dispatcher %s: %w", d.ID, err)
			}
			components = append(components, k)

		case "Redis":
			components = append(components, dispatcher.NewRedis(dispatcher.RedisConfig{
				ID:   d.ID,
				Mode: redisMode(d),
				Connection: dispatcher.RedisConnection{
					Host:           d.Host,
					Port:           d.Port,
					Auth:           d.Auth,
					DatabaseNumber: d.DatabaseNumber,
				},
			}))

		case "Elasticsearch":
			es, err := dispatcher.NewElasticsearch(dispatcher.ElasticsearchConfig{
				ID:    d.ID,
				URL:   d.URL,
				Index: d.Index,
			})
			if err != nil {
				return nil, fmt.Errorf("build elasticsearch dispatcher %s: %w", d.ID, err)
			}
			components = append(components, es)

		default:
			return nil, fmt.Errorf("unknown dispatcher type %q", d.Type)
		}
	}

	return components, nil
}

func redisMode(d DispatcherConfig) dispatcher.RedisMode {
	switch d.Mode {
	case "LPush":
		return dispatcher.RedisMode{Kind: dispatcher.RedisModeLPush, Key: d.Key}
	case "Pub":
		return dispatcher.RedisMode{Kind: dispatcher.RedisModePub, Channel: d.Channel}
	case "XAdd":
		return dispatcher.RedisMode{Kind: dispatcher.RedisModeXAdd, Key: d.Key}
	default:
		return dispatcher.RedisMode{Kind: dispatcher.RedisModeRPush, Key: d.Key}
	}
}
