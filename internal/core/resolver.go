package core

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/districtlinker/internal/config"
	"github.com/agenthands/districtlinker/internal/core/classify"
	"github.com/agenthands/districtlinker/internal/core/containment"
	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/core/normalize"
	"github.com/agenthands/districtlinker/internal/core/reader"
	"github.com/agenthands/districtlinker/internal/core/writer"
	"github.com/agenthands/districtlinker/internal/knowledge"
	"github.com/agenthands/districtlinker/internal/logger"
)

// Store is the annotation store of one question: read by the Reader,
// written by the Writer.
type Store interface {
	reader.Store
	writer.Updater
}

// Resolver runs the district resolution for one question at a time:
// read, normalize, classify and find containing districts per entity,
// then write.
type Resolver struct {
	Reader      *reader.Reader
	Classifier  *classify.Classifier
	Containment *containment.Resolver
	Writer      *writer.Writer

	concurrency int
	log         *logger.Logger
	tracer      trace.Tracer
}

func NewResolver(graph knowledge.Graph, cfg *config.Config, log *logger.Logger, mirrors ...writer.Sink) *Resolver {
	log = logger.OrNop(log)
	concurrency := cfg.Concurrency.Entities
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		Reader:      reader.NewReader(cfg.Component.Language, log.With("step", "reader")),
		Classifier:  classify.NewClassifier(graph, log.With("step", "classifier")),
		Containment: containment.NewResolver(graph, log.With("step", "containment")),
		Writer:      writer.NewWriter(cfg.Component.Name, cfg.Region.StateType, cfg.Region.DistrictType, log.With("step", "writer"), mirrors...),
		concurrency: concurrency,
		log:         log,
		tracer:      otel.Tracer("github.com/agenthands/districtlinker/internal/core"),
	}
}

// Process handles one question end to end. The returned error is set only
// when the question could not be read; every later failure is recorded on
// the report and logged.
func (r *Resolver) Process(ctx context.Context, store Store) (*model.Report, error) {
	msg := store.Message()
	ctx, span := r.tracer.Start(ctx, "resolver.process", trace.WithAttributes(
		attribute.String("qanary.in_graph", msg.InGraph()),
		attribute.String("qanary.out_graph", msg.OutGraph()),
	))
	defer span.End()

	in, err := r.Reader.Read(ctx, store)
	if err != nil {
		span.RecordError(err)
		r.log.Error("failed to read question", "graph", msg.InGraph(), "error", err)
		return nil, err
	}

	report := r.Resolve(ctx, in)
	r.Writer.Write(ctx, writer.NewTriplestoreSink(store, msg.OutGraph()), report)

	span.SetAttributes(
		attribute.Int("resolver.mentions", len(report.Outcomes)),
		attribute.Int("resolver.written", report.Written),
	)
	if err := report.Err(); err != nil {
		r.log.Warn("question processed with failures", "question", report.QuestionURI, "written", report.Written, "errors", err.Error())
	} else {
		r.log.Info("question processed", "question", report.QuestionURI, "written", report.Written)
	}
	return report, nil
}

// Resolve normalizes the input rows and resolves every mention. Mentions
// run in parallel up to the configured limit; each mention's classification
// and containment lookups run independently of each other. Mentions whose
// work was abandoned because ctx ended are left out of the report.
func (r *Resolver) Resolve(ctx context.Context, in reader.Input) *model.Report {
	mentions, skipped := normalize.Normalize(in.Question, in.Rows)
	for _, err := range skipped {
		r.log.Warn("skipping annotation", "error", err)
	}

	outcomes := make([]model.Outcome, len(mentions))
	finished := make([]bool, len(mentions))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, m := range mentions {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = r.resolveMention(ctx, m, in.Language)
			finished[i] = ctx.Err() == nil
			return nil
		})
	}
	_ = g.Wait()

	report := &model.Report{
		QuestionURI: in.QuestionURI,
		Language:    in.Language,
		Skipped:     skipped,
	}
	for i, o := range outcomes {
		if !finished[i] {
			r.log.Warn("processing cancelled, entity abandoned", "entity", mentions[i].ExternalID)
			continue
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	return report
}

func (r *Resolver) resolveMention(ctx context.Context, m model.Mention, lang string) model.Outcome {
	var (
		wg                  sync.WaitGroup
		region              *model.RegionEntity
		related             []model.RelatedRegion
		classifyErr, refErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		region, classifyErr = r.Classifier.Classify(ctx, m, lang)
	}()
	go func() {
		defer wg.Done()
		related, refErr = r.Containment.Resolve(ctx, m, lang)
	}()
	wg.Wait()

	o := model.Outcome{Mention: m, Region: region, Related: related}
	if classifyErr != nil {
		r.log.Warn("classification failed", "entity", m.ExternalID, "error", classifyErr)
		o.Fail(classifyErr)
	}
	if refErr != nil {
		r.log.Warn("containment lookup failed", "entity", m.ExternalID, "error", refErr)
		o.Fail(refErr)
	}
	return o
}
