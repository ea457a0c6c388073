// Package worker runs document processing jobs on a bounded goroutine
// pool so uploads return immediately while ingestion happens in the
// background.
package worker

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/phuslu/log"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/core/ingestion"
	"github.com/markdave123-py/Archiva/internal/models"
)

// DefaultPoolSize caps concurrent document processing runs.
const DefaultPoolSize = 4

// jobTimeout bounds one full processing run, large documents included.
const jobTimeout = 10 * time.Minute

// failWriteTimeout bounds the status write after a failed run.
const failWriteTimeout = 10 * time.Second

// Result reports the outcome of one processing job.
type Result struct {
	DocumentID string
	Err        error
}

// Pool dispatches processing jobs onto a fixed-size ants pool. The pool
// is non-blocking: when every worker is busy, Submit returns
// ants.ErrPoolOverload instead of stalling the caller, and the document
// stays pending until it is resubmitted.
type Pool struct {
	pool     *ants.Pool
	pipeline *ingestion.Pipeline
	db       core.DbClient
	logger   *log.Logger
}

func NewPool(size int, pipeline *ingestion.Pipeline, db core.DbClient, logger *log.Logger) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	p, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p, pipeline: pipeline, db: db, logger: logger}, nil
}

// Submit schedules a document for processing. The returned channel is
// buffered and receives exactly one Result; dropping it is safe. A failed
// run always leaves the document in error status: the pipeline records
// failures it reaches, and the worker covers the paths the pipeline
// cannot, such as a run that dies before the processing transition
// lands.
func (p *Pool) Submit(documentID string) (<-chan Result, error) {
	done := make(chan Result, 1)
	err := p.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		runErr := p.pipeline.Process(ctx, documentID)
		if runErr != nil {
			p.logger.Error().Str("document_id", documentID).Err(runErr).Msg("processing job failed")
			p.markFailed(documentID, runErr)
		}
		done <- Result{DocumentID: documentID, Err: runErr}
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

// markFailed records the failure on the document row unless the pipeline
// already did. Best effort: a write failure here is logged, not
// propagated, since the job's error is already on its way to the caller.
func (p *Pool) markFailed(documentID string, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), failWriteTimeout)
	defer cancel()

	doc, err := p.db.GetDocumentByID(ctx, documentID)
	if err == nil && doc.Status == models.StatusError {
		return
	}
	if err := p.db.SetDocumentError(ctx, documentID, runErr.Error()); err != nil {
		p.logger.Error().Str("document_id", documentID).Err(err).Msg("could not record processing failure")
	}
}

// Running reports in-flight jobs.
func (p *Pool) Running() int { return p.pool.Running() }

// Close drains the pool, waiting for in-flight jobs.
func (p *Pool) Close() {
	p.pool.Release()
}
