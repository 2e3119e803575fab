package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/annotext/batch-annotator/internal/engine"
	"github.com/annotext/batch-annotator/internal/objstore"
	"github.com/annotext/batch-annotator/internal/pipeline"
	"github.com/annotext/batch-annotator/pkg/metrics"
)

// MetadataKey is the name of the empty marker object written under the batch
// prefix. It records that the batch exists and validates write access before
// any data file is touched.
const MetadataKey = "__metadata"

// BatchController is the addressable entry point for job control. One
// goroutine drains the mailbox, so control operations against the same
// controller never interleave. A started batch runs on its own goroutine
// and is never waited on: the reply to the caller only means the batch
// was launched.
type BatchController struct {
	store    objstore.Store
	registry *pipeline.Registry
	engine   *engine.Engine
	mailbox  chan Request
	logger   *zap.SugaredLogger
}

func New(store objstore.Store, registry *pipeline.Registry, eng *engine.Engine) *BatchController {
	return &BatchController{
		store:    store,
		registry: registry,
		engine:   eng,
		mailbox:  make(chan Request),
		logger:   zap.S().Named("controller"),
	}
}

// Send delivers a control message to the mailbox. It blocks until the
// controller accepts the message or ctx is done. Whether a reply ever
// arrives depends on the message: unrecognized messages get none.
func (c *BatchController) Send(ctx context.Context, req Request) error {
	select {
	case c.mailbox <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the mailbox until ctx is done. It should be started exactly
// once, on its own goroutine.
func (c *BatchController) Run(ctx context.Context) {
	for {
		select {
		case req := <-c.mailbox:
			c.dispatch(ctx, req)
		case <-ctx.Done():
			return
		}
	}
}

func (c *BatchController) dispatch(ctx context.Context, req Request) {
	switch r := req.(type) {
	case InitializeRequest:
		r.Reply <- c.initialize(ctx)
	case AnalyseSourceRequest:
		r.Reply <- c.analyseSource(ctx, r)
	case CheckProgressRequest:
		r.Reply <- c.checkProgress(ctx, r)
	default:
		// No reply. The sender is on its own.
		c.logger.Errorw("unrecognized control message", "type", fmt.Sprintf("%T", req))
	}
}

// initialize is a placeholder connectivity check. It does not touch the
// store yet and always succeeds.
func (c *BatchController) initialize(_ context.Context) bool {
	return true
}

func (c *BatchController) analyseSource(ctx context.Context, r AnalyseSourceRequest) ResultMessage {
	batchID := uuid.NewString()

	if r.AnnotatorHandle != "" {
		// Only one annotation gateway is wired; the handle is informational.
		c.logger.Debugw("annotator handle supplied", "handle", r.AnnotatorHandle)
	}

	// The marker goes in first: it records the batch's existence and proves
	// write access before any data file is read.
	markerKey := batchID + "/" + MetadataKey
	if err := c.store.Write(ctx, r.Bucket, markerKey, bytes.NewReader(nil), 0); err != nil {
		c.logger.Errorw("failed to write batch marker", "bucket", r.Bucket, "key", markerKey, "error", err)
		return ResultMessage{Result: "", Message: err.Error()}
	}

	desc, err := c.registry.Resolve(r.AnalysisType)
	if err != nil {
		c.logger.Warnw("analysis type not resolved", "analysis_type", r.AnalysisType)
		return ResultMessage{Result: "", Message: err.Error()}
	}

	metrics.IncreaseBatchesStartedMetric(r.AnalysisType)

	// Fire and forget. There is no way to cancel the batch once launched,
	// and failures after this point are only ever logged.
	go func() {
		_ = c.engine.Run(context.Background(), r.Bucket, batchID, desc)
	}()

	return ResultMessage{
		Result:  batchID,
		Message: fmt.Sprintf("Started %s analysis for bucket %s", r.AnalysisType, r.Bucket),
	}
}

// checkProgress acknowledges the request. No progress state is tracked.
func (c *BatchController) checkProgress(_ context.Context, r CheckProgressRequest) ResultMessage {
	return ResultMessage{
		Result:  r.BatchID,
		Message: fmt.Sprintf("Checking progress of batch %s in bucket %s", r.BatchID, r.Bucket),
	}
}
