package service

import (
	"context"
	"fmt"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/pkg/logger"
)

// Pipeline runs the full generation flow for one job: fetch the source
// bytes, extract text, prompt the generation backend and parse the response
// into a study bundle. One run executes per triggering call, there are no
// background workers.
type Pipeline struct {
	store     JobStore
	blobs     BlobFetcher
	extractor *Extractor
	generator Generator
}

func NewPipeline(store JobStore, blobs BlobFetcher, extractor *Extractor, generator Generator) *Pipeline {
	return &Pipeline{
		store:     store,
		blobs:     blobs,
		extractor: extractor,
		generator: generator,
	}
}

// Run executes the pipeline for jobID and records the outcome on the job.
// ErrJobNotFound is returned to the caller directly, there is no record to
// write it on. Every other failure lands on the job as status=error with a
// message; rerunning a finished job overwrites its record.
//
// Two concurrent runs for the same id are not serialized, the store's last
// writer wins.
func (p *Pipeline) Run(ctx context.Context, jobID string) error {
	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, logger.JobIDKey, jobID)
	logger.Info(ctx, "starting generation pipeline", "filename", job.Filename)

	if err := p.store.UpdateStatus(ctx, jobID, model.StatusPending, ""); err != nil {
		return err
	}

	bundle, err := p.produce(ctx, job)
	if err != nil {
		logger.Error(ctx, "generation pipeline failed", "error", err)
		if updateErr := p.store.UpdateStatus(ctx, jobID, model.StatusError, err.Error()); updateErr != nil {
			logger.Error(ctx, "failed to record pipeline failure", "error", updateErr)
		}
		return err
	}

	if err := p.store.UpdateResult(ctx, jobID, bundle); err != nil {
		logger.Error(ctx, "failed to store pipeline result", "error", err)
		return err
	}

	logger.Info(ctx, "generation pipeline finished",
		"questions", len(bundle.Quiz),
		"flashcards", len(bundle.Flashcards),
	)
	return nil
}

func (p *Pipeline) produce(ctx context.Context, job *model.Job) (*model.StudyBundle, error) {
	data, err := p.blobs.FetchFile(ctx, job.SourceRef)
	if err != nil {
		return nil, ExtractionError(fmt.Sprintf("failed to fetch %s", job.SourceRef), err)
	}

	doc, err := p.extractor.Extract(ctx, job.Filename, data)
	if err != nil {
		return nil, err
	}
	if doc.Note != "" {
		logger.Info(ctx, "extraction note", "note", doc.Note, "pages", doc.PageCount)
	}

	raw, err := p.generator.Generate(ctx, BuildPrompt(job.Filename, doc.Text))
	if err != nil {
		return nil, err
	}

	return ParseBundle(raw)
}
