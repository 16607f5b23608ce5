package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agenthands/districtlinker/internal/config"
	"github.com/agenthands/districtlinker/internal/core"
	"github.com/agenthands/districtlinker/internal/core/writer"
	"github.com/agenthands/districtlinker/internal/driver"
	"github.com/agenthands/districtlinker/internal/knowledge"
	"github.com/agenthands/districtlinker/internal/logger"
	"github.com/agenthands/districtlinker/internal/qanary"
	"github.com/agenthands/districtlinker/internal/sparql"
)

// Components is the wired pipeline shared by the HTTP server and the CLI.
type Components struct {
	Resolver *core.Resolver
	Stores   StoreFactory
	// Mirror is nil unless memgraph.uri is configured.
	Mirror *writer.MirrorSink

	driver driver.GraphDriver
}

// NewComponents connects the knowledge graph client and, when configured,
// the Memgraph mirror. A mirror that cannot be reached is logged and left
// out.
func NewComponents(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Components, error) {
	log = logger.OrNop(log)
	httpClient := &http.Client{}

	kg := sparql.New(cfg.KnowledgeGraph.Endpoint,
		sparql.WithHTTPClient(httpClient),
		sparql.WithTimeout(cfg.KnowledgeGraph.QueryTimeout.Duration),
		sparql.WithMaxRetries(cfg.KnowledgeGraph.MaxRetries),
		sparql.WithUserAgent(cfg.KnowledgeGraph.UserAgent),
	)
	graph, err := knowledge.NewWikidata(kg, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("invalid region configuration: %w", err)
	}

	c := &Components{}
	var mirrors []writer.Sink
	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, log.With("component", "memgraph"))
		if err != nil {
			log.Warn("memgraph mirror unavailable, continuing without it", "uri", cfg.Memgraph.URI, "error", err)
		} else {
			if err := d.BuildIndices(ctx); err != nil {
				log.Warn("failed to build memgraph indices", "error", err)
			}
			c.driver = d
			c.Mirror = writer.NewMirrorSink(d)
			mirrors = append(mirrors, c.Mirror)
		}
	}

	c.Resolver = core.NewResolver(graph, cfg, log, mirrors...)
	c.Stores = func(msg qanary.Message) (core.Store, error) {
		store, err := qanary.NewStore(msg, httpClient,
			sparql.WithTimeout(cfg.Store.QueryTimeout.Duration),
			sparql.WithMaxRetries(cfg.Store.MaxRetries),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return c, nil
}

// Options returns the server options the components enable.
func (c *Components) Options() []Option {
	if c.Mirror == nil {
		return nil
	}
	return []Option{WithRegions(c.Mirror)}
}

func (c *Components) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}
