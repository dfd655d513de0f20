package workflowstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/model"
	"github.com/aquanode/aqua-engine/pkg/logger"
	"github.com/aquanode/aqua-engine/storage"
)

var (
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrExecutionNotFound = errors.New("execution not found")
)

// Store persists workflows and their execution history in badger.
//
// Key layout:
//
//	w:<owner>:<workflowId>              workflow document
//	h:<owner>:<workflowId>:<execId>     execution summary
//	ct:runs:<owner>:<workflowId>        total run counter
//	ct:ok:<owner>:<workflowId>          successful run counter
//
// Execution ids are ulids, so the history prefix scans back in run order.
type Store struct {
	db     storage.Storage
	logger logger.Logger
}

func New(db storage.Storage, lg logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.EnsureLogger(lg),
	}
}

func WorkflowKey(owner, id string) []byte {
	return []byte(fmt.Sprintf("w:%s:%s", model.NormalizeOwner(owner), id))
}

func workflowPrefix(owner string) []byte {
	return []byte(fmt.Sprintf("w:%s:", model.NormalizeOwner(owner)))
}

func ExecutionKey(owner, workflowID, executionID string) []byte {
	return []byte(fmt.Sprintf("h:%s:%s:%s", model.NormalizeOwner(owner), workflowID, executionID))
}

func executionPrefix(owner, workflowID string) []byte {
	return []byte(fmt.Sprintf("h:%s:%s:", model.NormalizeOwner(owner), workflowID))
}

func runsCounterKey(owner, workflowID string) []byte {
	return []byte(fmt.Sprintf("ct:runs:%s:%s", model.NormalizeOwner(owner), workflowID))
}

func okCounterKey(owner, workflowID string) []byte {
	return []byte(fmt.Sprintf("ct:ok:%s:%s", model.NormalizeOwner(owner), workflowID))
}

// Create persists a new workflow, assigning id, status, and timestamps when
// unset.
func (s *Store) Create(wf *model.Workflow) error {
	if wf.ID == "" {
		wf.ID = model.GenerateWorkflowID()
	}
	wf.Owner = model.NormalizeOwner(wf.Owner)
	if wf.Status == "" {
		wf.Status = model.WorkflowStatusDraft
	}

	now := time.Now().UTC()
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = now
	}
	wf.UpdatedAt = now

	body, err := wf.ToJSON()
	if err != nil {
		return err
	}

	return s.db.Set(WorkflowKey(wf.Owner, wf.ID), body)
}

func (s *Store) Get(owner, id string) (*model.Workflow, error) {
	body, err := s.db.GetKey(WorkflowKey(owner, id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}

	wf := &model.Workflow{}
	if err := wf.FromStorageData(body); err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *Store) List(owner string) ([]*model.Workflow, error) {
	items, err := s.db.GetByPrefix(workflowPrefix(owner))
	if err != nil {
		return nil, err
	}

	workflows := make([]*model.Workflow, 0, len(items))
	for _, item := range items {
		wf := &model.Workflow{}
		if err := wf.FromStorageData(item.Value); err != nil {
			s.logger.Error("skipping corrupt workflow record", "key", string(item.Key), "error", err)
			continue
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}

// ListAll returns every stored workflow across owners. The scheduler uses it
// to find active workflows with cron triggers.
func (s *Store) ListAll() ([]*model.Workflow, error) {
	items, err := s.db.GetByPrefix([]byte("w:"))
	if err != nil {
		return nil, err
	}

	workflows := make([]*model.Workflow, 0, len(items))
	for _, item := range items {
		wf := &model.Workflow{}
		if err := wf.FromStorageData(item.Value); err != nil {
			s.logger.Error("skipping corrupt workflow record", "key", string(item.Key), "error", err)
			continue
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}

// Update overwrites an existing workflow. The workflow must already exist;
// use Create for new documents.
func (s *Store) Update(wf *model.Workflow) error {
	key := WorkflowKey(wf.Owner, wf.ID)
	exists, err := s.db.Exist(key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrWorkflowNotFound
	}

	wf.UpdatedAt = time.Now().UTC()
	body, err := wf.ToJSON()
	if err != nil {
		return err
	}
	return s.db.Set(key, body)
}

// Delete removes the workflow together with its execution history and
// counters.
func (s *Store) Delete(owner, id string) error {
	key := WorkflowKey(owner, id)
	exists, err := s.db.Exist(key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrWorkflowNotFound
	}

	if err := s.db.Delete(key); err != nil {
		return err
	}
	if err := s.db.DeleteByPrefix(executionPrefix(owner, id)); err != nil {
		return err
	}
	if err := s.db.Delete(runsCounterKey(owner, id)); err != nil {
		return err
	}
	return s.db.Delete(okCounterKey(owner, id))
}

// RecordExecution appends a run summary to the workflow's history and folds
// the outcome into its run counters and success rate.
func (s *Store) RecordExecution(owner string, wf *model.Workflow, summary *workflowengine.ExecutionSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	if err := s.db.Set(ExecutionKey(owner, wf.ID, summary.ExecutionID), body); err != nil {
		return err
	}

	runs, err := s.db.IncCounter(runsCounterKey(owner, wf.ID))
	if err != nil {
		return err
	}

	ok := uint64(0)
	if summary.Status == workflowengine.RunStatusSuccess {
		if ok, err = s.db.IncCounter(okCounterKey(owner, wf.ID)); err != nil {
			return err
		}
	} else {
		if ok, err = s.db.GetCounter(okCounterKey(owner, wf.ID), 0); err != nil {
			return err
		}
	}

	wf.TotalRuns = int(runs)
	wf.SuccessRate = float64(ok) / float64(runs) * 100
	lastRun := summary.Timestamp
	wf.LastRun = &lastRun
	wf.ExecutionHistory = append(wf.ExecutionHistory, summary.Condense())

	return s.Update(wf)
}

// Executions returns the stored summaries for a workflow, oldest first.
func (s *Store) Executions(owner, workflowID string) ([]*workflowengine.ExecutionSummary, error) {
	items, err := s.db.GetByPrefix(executionPrefix(owner, workflowID))
	if err != nil {
		return nil, err
	}

	summaries := make([]*workflowengine.ExecutionSummary, 0, len(items))
	for _, item := range items {
		summary := &workflowengine.ExecutionSummary{}
		if err := json.Unmarshal(item.Value, summary); err != nil {
			s.logger.Error("skipping corrupt execution record", "key", string(item.Key), "error", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Store) Execution(owner, workflowID, executionID string) (*workflowengine.ExecutionSummary, error) {
	body, err := s.db.GetKey(ExecutionKey(owner, workflowID, executionID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}

	summary := &workflowengine.ExecutionSummary{}
	if err := json.Unmarshal(body, summary); err != nil {
		return nil, err
	}
	return summary, nil
}
