package indexing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quartzerp/globalsearch/pkg/format"
	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/registry"
	"github.com/quartzerp/globalsearch/pkg/strategy"
)

// reindexConcurrency bounds how many entities reindex in parallel. Within one
// entity, documents go in sequentially to keep pressure on the engine low.
const reindexConcurrency = 4

// ReindexReport accumulates the outcome of a sweep. A failing entity is
// recorded here, it never aborts the rest of the sweep.
type ReindexReport struct {
	Total     int               `json:"total"`
	PerEntity map[string]int    `json:"perEntity"`
	Errors    map[string]string `json:"errors,omitempty"`
	Elapsed   time.Duration     `json:"-"`
}

// BatchError is one failed document in a batch.
type BatchError struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

// BatchReport is the settled outcome of a batch: every document either
// succeeded or carries an error, there is no all-or-nothing result.
type BatchReport struct {
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Errors     []BatchError `json:"errors,omitempty"`
}

// Pipeline maintains the inverted index from the relational source of truth.
type Pipeline struct {
	indexer   strategy.DocumentIndexer
	source    RecordSource
	registry  *registry.Registry
	converter *Converter
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewPipeline creates the indexing pipeline. metrics may be nil.
func NewPipeline(indexer strategy.DocumentIndexer, source RecordSource, reg *registry.Registry, logger *observability.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		indexer:   indexer,
		source:    source,
		registry:  reg,
		converter: NewConverter(),
		logger:    logger,
		metrics:   metrics,
	}
}

// IndexDocument upserts one document.
func (p *Pipeline) IndexDocument(ctx context.Context, docType, id string, doc model.SearchDocument) error {
	if err := p.indexer.IndexDocument(ctx, docType, id, doc); err != nil {
		if p.metrics != nil {
			p.metrics.IndexErrorsTotal.WithLabelValues(docType).Inc()
		}
		return err
	}
	if p.metrics != nil {
		p.metrics.DocumentsIndexedTotal.WithLabelValues(docType).Inc()
	}
	return nil
}

// DeleteDocument removes one document. Deleting an absent document succeeds.
func (p *Pipeline) DeleteDocument(ctx context.Context, docType, id string) error {
	return p.indexer.DeleteDocument(ctx, docType, id)
}

// ReindexEntity reads the entity's records and indexes them sequentially.
// It returns the number of documents written. An entity whose backing table
// does not exist yields zero documents and a warning, not an error.
func (p *Pipeline) ReindexEntity(ctx context.Context, d *registry.EntityDescriptor, tenantID string) (int, error) {
	records, err := p.source.Fetch(ctx, d, tenantID)
	if err != nil {
		if strategy.IsMissingTable(err) {
			p.logger.WithField("entity", d.Type).WithField("table", d.Table).
				Warn("Backing table does not exist, skipping entity")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s records: %w", d.Type, err)
	}

	count := 0
	for _, rec := range records {
		doc := p.converter.ToDocument(d, rec)
		if err := p.IndexDocument(ctx, d.Type, doc.ID, doc); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ReindexAll sweeps every enabled entity, concurrently across entities. Each
// entity's count or error lands in the report; one entity failing never stops
// the others.
func (p *Pipeline) ReindexAll(ctx context.Context, tenantID string) *ReindexReport {
	start := time.Now()
	report := &ReindexReport{
		PerEntity: make(map[string]int),
		Errors:    make(map[string]string),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reindexConcurrency)

	for _, d := range p.registry.Enabled() {
		d := d
		g.Go(func() error {
			count, err := p.ReindexEntity(ctx, d, tenantID)

			mu.Lock()
			defer mu.Unlock()
			report.PerEntity[d.Type] = count
			report.Total += count
			if err != nil {
				report.Errors[d.Type] = err.Error()
				p.logger.WithError(err).WithField("entity", d.Type).Error("Entity reindex failed")
			}
			return nil
		})
	}
	g.Wait()

	report.Elapsed = time.Since(start)
	if p.metrics != nil {
		p.metrics.ReindexDuration.Observe(report.Elapsed.Seconds())
	}
	p.logger.WithField("total", report.Total).
		WithField("failed_entities", len(report.Errors)).
		WithField("elapsed", report.Elapsed.String()).
		Info("Reindex sweep completed")
	return report
}

// IndexBatch indexes documents concurrently and reports per-document
// outcomes.
func (p *Pipeline) IndexBatch(ctx context.Context, docs []model.SearchDocument) *BatchReport {
	report := &BatchReport{}
	if len(docs) == 0 {
		return report
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, doc := range docs {
		doc := doc
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.IndexDocument(ctx, doc.Type, doc.ID, doc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, BatchError{
					ID:    doc.ID,
					Type:  doc.Type,
					Error: err.Error(),
				})
				return
			}
			report.Successful++
		}()
	}
	wg.Wait()
	return report
}

// FromRecord exposes the converter for callers that already hold a record.
func (p *Pipeline) FromRecord(d *registry.EntityDescriptor, rec format.Record) model.SearchDocument {
	return p.converter.ToDocument(d, rec)
}
