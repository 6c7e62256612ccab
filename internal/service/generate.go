package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mediamap/internal/category"
	"mediamap/internal/config"
	"mediamap/internal/document"
	"mediamap/internal/logging"
	"mediamap/internal/model"
	"mediamap/internal/normalize"
	"mediamap/internal/render"
	"mediamap/internal/repository"
	"mediamap/internal/storage"
	"mediamap/internal/timeline"
)

var (
	ErrSourceRequired = errors.New("a media source is required")
	ErrOutputRequired = errors.New("output path is required")
	ErrNoValidRecords = errors.New("no valid records with coordinates")
)

var tracer = otel.Tracer("mediamap/service")

// GenerateRequest names the sources of one run and where the document goes.
type GenerateRequest struct {
	Media repository.TableRepository
	// Events is optional. A missing event source is skipped with a warning.
	Events repository.TableRepository
	Output string
}

// GenerateResult summarizes a finished run.
type GenerateResult struct {
	Output          string                     `json:"output"`
	RunID           string                     `json:"run_id"`
	Records         int                        `json:"records"`
	Markers         int                        `json:"markers"`
	Stats           model.Stats                `json:"stats"`
	DroppedBySource map[model.SourceOrigin]int `json:"dropped_by_source"`
	Duration        time.Duration              `json:"duration"`
}

// MapService produces map documents from tabular sources.
type MapService interface {
	// Generate loads, normalizes, categorizes and renders the sources of req
	// and writes the document to req.Output.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

type mapService struct {
	store       storage.Storage
	assembler   *document.Assembler
	normalizer  *normalize.Normalizer
	categorizer *category.Categorizer
	labels      document.Labels
}

// NewMapService constructs a MapService. store resolves media references; it
// may be nil, in which case every reference renders as missing.
func NewMapService(cfg *config.AppConfig, store storage.Storage, asm *document.Assembler) MapService {
	return &mapService{
		store:       store,
		assembler:   asm,
		normalizer:  normalize.New(cfg.Columns, cfg.EventColumns),
		categorizer: category.New(cfg.Labels.MarkerPhrase),
		labels: document.Labels{
			Title:  cfg.Labels.Title,
			EventA: cfg.Labels.EventA,
			EventB: cfg.Labels.EventB,
		},
	}
}

func (s *mapService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Media == nil {
		return nil, ErrSourceRequired
	}
	if req.Output == "" {
		return nil, ErrOutputRequired
	}
	started := time.Now()
	ctx, span := tracer.Start(ctx, "mediamap.generate", trace.WithAttributes(
		attribute.String("source", req.Media.Name()),
		attribute.String("output", req.Output),
	))
	defer span.End()

	res, err := s.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Error("service", "generate_failed", err, logging.Fields{"source": req.Media.Name()})
		return nil, err
	}
	res.Duration = time.Since(started)
	span.SetAttributes(
		attribute.Int("records", res.Records),
		attribute.Int("markers", res.Markers),
	)
	logging.Info("service", "generate_success", logging.Fields{
		"output":   res.Output,
		"run_id":   res.RunID,
		"records":  res.Records,
		"markers":  res.Markers,
		"dropped":  res.Stats.Dropped,
		"skipped":  res.Stats.Skipped,
		"duration": res.Duration.String(),
	})
	return res, nil
}

func (s *mapService) generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	media, err := s.load(ctx, req.Media)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", req.Media.Name(), err)
	}
	var events *model.Table
	if req.Events != nil {
		events, err = s.load(ctx, req.Events)
		switch {
		case errors.Is(err, repository.ErrSourceNotFound):
			logging.Warn("service", "event_source_missing", logging.Fields{"source": req.Events.Name()})
			events = nil
		case err != nil:
			return nil, fmt.Errorf("load %s: %w", req.Events.Name(), err)
		}
	}

	norm := s.normalize(ctx, media, events)
	if len(norm.Records) == 0 {
		return nil, ErrNoValidRecords
	}
	records := norm.Records

	if err := s.categorizer.AssignAll(records); err != nil {
		return nil, fmt.Errorf("categorize: %w", err)
	}

	rctx, rspan := tracer.Start(ctx, "mediamap.render")
	renderer := render.New(s.store)
	markers, err := renderer.RenderAll(rctx, records)
	rspan.End()
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	stats := renderer.Stats()
	stats.Dropped = norm.Dropped
	records = placed(records, markers)

	_, span := tracer.Start(ctx, "mediamap.timeline")
	tree := timeline.Build(records)
	span.SetAttributes(attribute.Int("days", len(tree.Days)))
	span.End()

	_, span = tracer.Start(ctx, "mediamap.document")
	defer span.End()
	page := s.assembler.Build(document.Input{
		Records: records,
		Markers: markers,
		Tree:    tree,
		Stats:   stats,
		Labels:  s.labels,
	})
	if err := s.assembler.WriteFile(req.Output, page); err != nil {
		return nil, fmt.Errorf("write %s: %w", req.Output, err)
	}

	return &GenerateResult{
		Output:          req.Output,
		RunID:           page.RunID,
		Records:         len(records),
		Markers:         len(markers),
		Stats:           stats,
		DroppedBySource: norm.DroppedBySource,
	}, nil
}

// placed keeps the records that produced a marker, so the tree and the
// filter refs never list a record the map cannot show.
func placed(recs []model.Record, markers []render.Marker) []model.Record {
	if len(markers) == len(recs) {
		return recs
	}
	ok := make(map[int]bool, len(markers))
	for _, m := range markers {
		ok[m.ID] = true
	}
	out := make([]model.Record, 0, len(markers))
	for _, r := range recs {
		if ok[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func (s *mapService) load(ctx context.Context, repo repository.TableRepository) (*model.Table, error) {
	ctx, span := tracer.Start(ctx, "mediamap.load", trace.WithAttributes(attribute.String("source", repo.Name())))
	defer span.End()
	t, err := repo.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", t.Len()))
	logging.Debug("service", "source_loaded", logging.Fields{"source": repo.Name(), "rows": t.Len()})
	return t, nil
}

func (s *mapService) normalize(ctx context.Context, media, events *model.Table) normalize.Result {
	_, span := tracer.Start(ctx, "mediamap.normalize")
	defer span.End()
	res := s.normalizer.Normalize(media, events)
	span.SetAttributes(
		attribute.Int("records", len(res.Records)),
		attribute.Int("dropped", res.Dropped),
	)
	return res
}
