package apqueue

import (
	"github.com/aquanode/aqua-engine/pkg/logger"
	"github.com/aquanode/aqua-engine/storage"
)

type JobProcessor interface {
	Perform(j *Job) error
}

// A worker drains the queue and hands each job to the processor registered
// for its type.
type Worker struct {
	q  *Queue
	db storage.Storage

	processorRegistry map[string]JobProcessor
	logger            logger.Logger
}

func NewWorker(q *Queue, db storage.Storage) *Worker {
	return &Worker{
		q:      q,
		db:     db,
		logger: q.logger,

		processorRegistry: make(map[string]JobProcessor),
	}
}

func (w *Worker) RegisterProcessor(jobType string, processor JobProcessor) error {
	w.processorRegistry[jobType] = processor
	return nil
}

func (w *Worker) loop() {
	for {
		select {
		case jid := <-w.q.eventCh:
			w.logger.Debug("process job from queue", "job_id", jid)
			job, err := w.q.Dequeue()
			if err != nil {
				w.logger.Error("failed to dequeue", "error", err)
				continue
			}
			if job == nil {
				continue
			}

			processor, ok := w.processorRegistry[job.Type]
			if !ok {
				w.logger.Error("no processor for job type", "job_id", job.ID, "job_type", job.Type)
				w.q.markJobDone(job, jobFailed)
				continue
			}

			if err := processor.Perform(job); err != nil {
				// TODO: route retryable errors to a retry queue instead of
				// parking them in failed
				w.q.markJobDone(job, jobFailed)
				w.logger.Error("failed to perform job", "error", err, "job_id", job.ID, "workflow_id", job.Name)
				continue
			}

			w.q.markJobDone(job, jobComplete)
			w.logger.Info("job performed", "job_id", job.ID, "workflow_id", job.Name)
		case <-w.q.closeCh:
			return
		}
	}
}

func (w *Worker) MustStart() {
	go w.loop()
}

// Stop signals the worker loop to exit.
func (w *Worker) Stop() {
	close(w.q.closeCh)
}
