package engine

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/annotext/batch-annotator/internal/annotator"
	"github.com/annotext/batch-annotator/internal/objstore"
	"github.com/annotext/batch-annotator/internal/pipeline"
	"github.com/annotext/batch-annotator/pkg/metrics"
)

const (
	// SourcePrefix is the bucket prefix the engine discovers input files under.
	SourcePrefix = "source_files"

	// ResultTag is appended to every derived output key.
	ResultTag = "result"

	// Stage widths. Each stage pulls more input only when it has spare
	// capacity, so a slow stage throttles everything upstream of it.
	readWidth     = 4
	mergeCapacity = 5
	annotateWidth = 5
	writeWidth    = 5
)

// Engine streams every file under SourcePrefix through read, annotate,
// transform and write stages, each with its own bounded worker pool. The
// first stage error cancels the whole run; files already written stay in
// the store, remaining files are never processed.
type Engine struct {
	store   objstore.Store
	gateway annotator.Annotator
}

func New(store objstore.Store, gateway annotator.Annotator) *Engine {
	return &Engine{store: store, gateway: gateway}
}

// Run processes one batch. It blocks until every discovered file has been
// written back under "<batchID>/<name>-result.json" or until the first
// failure. Outputs may be written in a different order than the listing.
func (e *Engine) Run(ctx context.Context, bucket, batchID string, desc pipeline.Descriptor) error {
	logger := zap.S().Named("engine")
	logger.Infow("starting batch stream", "bucket", bucket, "batch_id", batchID, "analysis_type", desc.Name())

	g, ctx := errgroup.WithContext(ctx)

	infos := make(chan objstore.FileInfo)
	records := make(chan objstore.FileRecord, mergeCapacity)
	outputs := make(chan objstore.FileRecord, writeWidth)

	// Listing stage. Directory markers are not files.
	g.Go(func() error {
		defer close(infos)
		for entry := range e.store.List(ctx, bucket, SourcePrefix) {
			if entry.Err != nil {
				return entry.Err
			}
			if strings.HasSuffix(entry.Info.Key, "/") {
				continue
			}
			select {
			case infos <- entry.Info:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Read stage: bounded parallel fetches merged into one record stream.
	g.Go(func() error {
		defer close(records)
		return runStage(ctx, readWidth, infos, records, func(ctx context.Context, info objstore.FileInfo) (objstore.FileRecord, error) {
			return e.readFile(ctx, bucket, info.Key)
		})
	})

	// Annotate stage: gateway call followed by the selected transformation.
	g.Go(func() error {
		defer close(outputs)
		return runStage(ctx, annotateWidth, records, outputs, func(ctx context.Context, record objstore.FileRecord) (objstore.FileRecord, error) {
			doc, err := e.gateway.Annotate(ctx, record.Name, record.Contents)
			if err != nil {
				metrics.IncreaseFilesProcessedMetric("failed")
				return objstore.FileRecord{}, err
			}
			return desc.Transform(doc)
		})
	})

	// Write stage.
	g.Go(func() error {
		workers, ctx := errgroup.WithContext(ctx)
		for i := 0; i < writeWidth; i++ {
			workers.Go(func() error {
				for {
					select {
					case record, ok := <-outputs:
						if !ok {
							return nil
						}
						key := NewFileName(batchID+"/"+record.Name, ResultTag)
						if err := e.store.Write(ctx, bucket, key, bytes.NewReader(record.Contents), int64(len(record.Contents))); err != nil {
							metrics.IncreaseFilesProcessedMetric("failed")
							return err
						}
						metrics.IncreaseFilesProcessedMetric("processed")
						logger.Debugw("wrote result", "bucket", bucket, "key", key)
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			})
		}
		return workers.Wait()
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("batch stream failed", "bucket", bucket, "batch_id", batchID, "error", err)
		return err
	}

	logger.Infow("batch stream finished", "bucket", bucket, "batch_id", batchID)
	return nil
}

func (e *Engine) readFile(ctx context.Context, bucket, key string) (objstore.FileRecord, error) {
	body, err := e.store.Read(ctx, bucket, key)
	if err != nil {
		return objstore.FileRecord{}, err
	}
	defer body.Close()

	contents, err := io.ReadAll(body)
	if err != nil {
		return objstore.FileRecord{}, errors.Wrapf(err, "failed to read object %s/%s", bucket, key)
	}

	return objstore.FileRecord{Name: path.Base(key), Contents: contents}, nil
}

// runStage pulls items from in through width concurrent workers and pushes
// the results to out. The first worker error cancels its siblings; the
// caller closes out once runStage returns.
func runStage[In, Out any](ctx context.Context, width int, in <-chan In, out chan<- Out, work func(context.Context, In) (Out, error)) error {
	workers, ctx := errgroup.WithContext(ctx)
	for i := 0; i < width; i++ {
		workers.Go(func() error {
			for {
				select {
				case item, ok := <-in:
					if !ok {
						return nil
					}
					result, err := work(ctx, item)
					if err != nil {
						return err
					}
					select {
					case out <- result:
					case <-ctx.Done():
						return ctx.Err()
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}
	return workers.Wait()
}
