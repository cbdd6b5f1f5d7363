package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/log"
	"github.com/wlf-engine/wlf/pkg/metrics"
)

// ElasticsearchConfig configures an Elasticsearch dispatcher.
type ElasticsearchConfig struct {
	ID    string
	URL   string // default "http://localhost:9200"
	Index string // template, default "wlf"
}

// Elasticsearch is the dispatcher component indexing events as documents.
// Per spec, a non-2xx response is logged and not retried: at-least-once
// delivery is left to Kafka/Redis at the transport level, and an ES
// indexing error surfaces only as a logged warning here, never a task
// failure.
type Elasticsearch struct {
	cfg    ElasticsearchConfig
	client *elasticsearch.Client
	logger zerolog.Logger
}

// NewElasticsearch constructs an Elasticsearch dispatcher.
func NewElasticsearch(cfg ElasticsearchConfig) (*Elasticsearch, error) {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:9200"
	}
	if cfg.Index == "" {
		cfg.Index = "wlf"
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.URL}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Elasticsearch{cfg: cfg, client: client, logger: log.WithComponent(cfg.ID)}, nil
}

func (d *Elasticsearch) ID() string           { return d.cfg.ID }
func (d *Elasticsearch) Kind() component.Kind { return component.KindDispatcher }

func (d *Elasticsearch) Run(ctx context.Context, r component.Router) error {
	for {
		e, err := r.PollEvent(ctx, d.cfg.ID)
		if err != nil {
			return err
		}

		index, err := Substitute(d.cfg.Index, e.Value)
		if err != nil {
			metrics.TemplateSubstitutionFailureTotal.WithLabelValues(d.cfg.ID).Inc()
			d.logger.Warn().Err(err).Msg("skipping event: index template failed")
			continue
		}

		payload, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		req := esapi.IndexRequest{Index: index, Body: bytes.NewReader(payload)}
		resp, err := req.Do(ctx, d.client)
		if err != nil {
			metrics.DispatchFailureTotal.WithLabelValues(d.cfg.ID).Inc()
			d.logger.Warn().Err(err).Str("index", index).Msg("elasticsearch index request failed")
			continue
		}
		if resp.IsError() {
			metrics.DispatchFailureTotal.WithLabelValues(d.cfg.ID).Inc()
		} else {
			metrics.DispatchSuccessTotal.WithLabelValues(d.cfg.ID).Inc()
		}
		d.logResponse(index, resp)
	}
}

func (d *Elasticsearch) logResponse(index string, resp *esapi.Response) {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	ev := d.logger.Debug()
	if resp.IsError() {
		ev = d.logger.Warn()
	}
	ev.Str("index", index).Int("status", resp.StatusCode).Str("body", string(body)).Msg("elasticsearch index response")
}
