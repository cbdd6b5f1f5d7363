package config

import (
	"fmt"
	"strings"

	"github.com/magiconair/properties"
)

// LoadProperties reads a legacy Maxwell Java-properties file and
// translates it into the same Pipeline shape LoadYAML produces: one
// Binlog collector feeding one BinlogFilter (if a `filter` property is
// present) feeding one dispatcher, chosen by the `producer` property.
// Maxwell's `%{table}` / `%{database}` template placeholders are
// rewritten into this engine's `%{/table}` / `%{/database}` JSON-pointer
// form along the way.
func LoadProperties(path string) (*Pipeline, error) {
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("read properties file: %w", err)
	}

	const (
		collectorID = "collector"
		dispatchID  = "dispatcher"
	)
	collectorDestination := dispatchID

	rules := parseFilterProperty(props.GetString("filter", ""))
	filterID := ""
	if len(rules) > 0 {
		filterID = "filter"
		collectorDestination = filterID
	}

	pipeline := &Pipeline{
		Collectors: []CollectorConfig{{
			Type:        "Binlog",
			ID:          collectorID,
			Destination: collectorDestination,
			Host:        props.GetString("host", "localhost"),
			User:        props.GetString("user", ""),
			Password:    props.GetString("password", ""),
		}},
	}

	if filterID != "" {
		pipeline.Transformers = append(pipeline.Transformers, TransformerConfig{
			Type:        "BinlogFilter",
			ID:          filterID,
			Destination: dispatchID,
			Rules:       rules,
		})
	}

	dispatcherCfg, err := buildProducerDispatcher(props, dispatchID)
	if err != nil {
		return nil, err
	}
	pipeline.Dispatchers = append(pipeline.Dispatchers, dispatcherCfg)

	return pipeline, nil
}

func buildProducerDispatcher(props *properties.Properties, id string) (DispatcherConfig, error) {
	switch producer := props.GetString("producer", "kafka"); producer {
	case "kafka":
		brokers := strings.Split(props.GetString("kafka.bootstrap.servers", "localhost:9092"), ",")
		return DispatcherConfig{
			Type:             "Kafka",
			ID:               id,
			Topic:            rewritePlaceholders(props.GetString("kafka_topic", "wasm-log-flex")),
			BootstrapBrokers: brokers,
			Compression:      props.GetString("kafka.compression.type", "none"),
		}, nil

	case "redis":
		return DispatcherConfig{
			Type:           "Redis",
			ID:             id,
			Mode:           redisModeFromProperty(props.GetString("redis_type", "rpush")),
			Key:            rewritePlaceholders(props.GetString("redis_key", "wlf")),
			Channel:        rewritePlaceholders(props.GetString("redis_key", "wlf")),
			Host:           props.GetString("redis_host", "localhost"),
			Port:           props.GetInt("redis_port", 6379),
			Auth:           props.GetString("redis_auth", ""),
			DatabaseNumber: props.GetInt("redis_database", 0),
		}, nil

	default:
		return DispatcherConfig{}, fmt.Errorf("unsupported maxwell producer %q", producer)
	}
}

func redisModeFromProperty(mode string) string {
	switch strings.ToLower(mode) {
	case "lpush":
		return "LPush"
	case "pub", "pubsub":
		return "Pub"
	case "xadd":
		return "XAdd"
	default:
		return "RPush"
	}
}

// parseFilterProperty parses Maxwell's `filter` property: a
// comma-separated list of "include:db.table" / "exclude:db.table"
// entries, evaluated in the order given. A table of "*" maps to the
// wildcard-all-tables form (Table == nil).
func parseFilterProperty(filter string) []RuleConfig {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}

	var rules []RuleConfig
	for _, entry := range strings.Split(filter, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		action := strings.ToLower(strings.TrimSpace(parts[0]))
		dbTable := strings.TrimSpace(parts[1])

		db, table := dbTable, "*"
		if idx := strings.Index(dbTable, "."); idx >= 0 {
			db, table = dbTable[:idx], dbTable[idx+1:]
		}

		rule := RuleConfig{Database: db, Include: action == "include"}
		if table != "*" {
			t := table
			rule.Table = &t
		}
		rules = append(rules, rule)
	}
	return rules
}

// rewritePlaceholders translates Maxwell's "%{table}" / "%{database}"
// template syntax into this engine's RFC 6901 pointer form.
func rewritePlaceholders(template string) string {
	replacer := strings.NewReplacer(
		"%{table}", "%{/table}",
		"%{database}", "%{/database}",
	)
	return replacer.Replace(template)
}
