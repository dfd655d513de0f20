package apqueue

import (
	"errors"
	"sync"

	"github.com/aquanode/aqua-engine/pkg/logger"
	"github.com/aquanode/aqua-engine/storage"
)

// Queue is a durable FIFO backed by the embedded store. Jobs move through
// pending, in-progress, and finally complete or failed key ranges; a crash
// leaves them parked in their current range instead of losing them.
type Queue struct {
	db     storage.Storage
	logger logger.Logger

	seq    storage.Sequence
	dbLock sync.Mutex

	eventCh chan uint64
	closeCh chan bool

	prefix string
}

type QueueOption struct {
	Prefix string
	Logger logger.Logger
}

func New(db storage.Storage, opts *QueueOption) *Queue {
	q := Queue{
		db:     db,
		dbLock: sync.Mutex{},

		eventCh: make(chan uint64, 1000),
		closeCh: make(chan bool),

		prefix: "d",
		logger: logger.NewNoOpLogger(),
	}

	if opts != nil {
		if opts.Prefix != "" {
			q.prefix = opts.Prefix
		}
		q.logger = logger.EnsureLogger(opts.Logger)
	}

	return &q
}

// MustStart claims the queue sequence, panicking when storage is unusable.
func (q *Queue) MustStart() error {
	var err error
	q.seq, err = q.db.GetSequence([]byte("q:seq:"+q.prefix), 1000)
	if err != nil {
		panic(err)
	}

	return err
}

// Recover re-fires jobs that were parked in-progress when the process died.
func (q *Queue) Recover() error {
	q.dbLock.Lock()
	defer q.dbLock.Unlock()

	kvs, err := q.db.GetByPrefix(q.getQueueKeyPrefix(jobInProgress))
	if err != nil {
		return err
	}

	for _, kv := range kvs {
		j, err := decodeJob(kv.Value)
		if err != nil {
			q.logger.Error("cannot decode stuck job, leaving in place", "key", string(kv.Key), "error", err)
			continue
		}
		if err := q.db.Move(kv.Key, q.getJobKey(jobPending, j.ID)); err != nil {
			return err
		}
		q.eventCh <- j.ID
		q.logger.Info("requeued stuck job", "job_id", j.ID, "workflow_id", j.Name)
	}

	return nil
}

// Stop releases the sequence so unused ids are not burned.
func (q *Queue) Stop() error {
	if q.seq == nil {
		return nil
	}
	return q.seq.Release()
}

func getNextSeq(seq storage.Sequence) (num uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = r.(error)
		}
	}()

	num, err = seq.Next()
	return num, err
}

// Enqueue appends a job to the pending range and wakes the worker.
func (q *Queue) Enqueue(job *Job) (uint64, error) {
	num, err := getNextSeq(q.seq)
	if err != nil {
		return 0, err
	}

	job.ID = num + 1
	b, err := encodeJob(job)
	if err != nil {
		return 0, err
	}

	if err := q.db.Set(q.getJobKey(jobPending, job.ID), b); err != nil {
		return 0, err
	}
	q.eventCh <- job.ID

	return job.ID, nil
}

// Dequeue moves the oldest pending job to in-progress and returns it. A nil
// job with nil error means the queue is empty.
func (q *Queue) Dequeue() (*Job, error) {
	q.dbLock.Lock()
	defer q.dbLock.Unlock()

	k, v, err := q.db.FirstKVHasPrefix(q.getQueueKeyPrefix(jobPending))
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, nil
	}

	j, err := decodeJob(v)
	if err != nil {
		return nil, err
	}

	err = q.db.Move(k, q.getJobKey(jobInProgress, j.ID))
	return j, err
}

func (q *Queue) markJobDone(job *Job, status jobStatus) error {
	if status != jobComplete && status != jobFailed {
		return errors.New("can only move to complete or failed status")
	}

	q.dbLock.Lock()
	defer q.dbLock.Unlock()

	return q.db.Move(q.getJobKey(jobInProgress, job.ID), q.getJobKey(status, job.ID))
}

func (q *Queue) getQueueKeyPrefix(status jobStatus) []byte {
	return []byte("q:" + q.prefix + ":" + status.HumanReadable() + ":")
}

func (q *Queue) getJobKey(status jobStatus, jID uint64) []byte {
	return append(q.getQueueKeyPrefix(status), []byte(jobIDString(jID))...)
}
