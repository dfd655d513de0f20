package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aquanode/aqua-engine/core/workflowengine"
	"github.com/aquanode/aqua-engine/core/workflowstore"
	"github.com/aquanode/aqua-engine/model"
)

func (s *Server) createWorkflow(c echo.Context) error {
	wf := &model.Workflow{}
	if err := c.Bind(wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workflow payload")
	}

	wf.ID = ""
	wf.Owner = requestOwner(c)
	if err := s.store.Create(wf); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, &HttpJsonResp[*model.Workflow]{Data: wf})
}

func (s *Server) listWorkflows(c echo.Context) error {
	workflows, err := s.store.List(requestOwner(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &HttpJsonResp[[]*model.Workflow]{Data: workflows})
}

func (s *Server) getWorkflow(c echo.Context) error {
	wf, err := s.store.Get(requestOwner(c), c.Param("id"))
	if err != nil {
		return notFoundOr(err)
	}
	return c.JSON(http.StatusOK, &HttpJsonResp[*model.Workflow]{Data: wf})
}

func (s *Server) updateWorkflow(c echo.Context) error {
	owner := requestOwner(c)

	existing, err := s.store.Get(owner, c.Param("id"))
	if err != nil {
		return notFoundOr(err)
	}

	wf := &model.Workflow{}
	if err := c.Bind(wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workflow payload")
	}

	// Identity and run statistics are owned by the server, not the caller.
	wf.ID = existing.ID
	wf.Owner = owner
	wf.CreatedAt = existing.CreatedAt
	wf.TotalRuns = existing.TotalRuns
	wf.SuccessRate = existing.SuccessRate
	wf.LastRun = existing.LastRun
	wf.ExecutionHistory = existing.ExecutionHistory

	if err := s.store.Update(wf); err != nil {
		return notFoundOr(err)
	}
	return c.JSON(http.StatusOK, &HttpJsonResp[*model.Workflow]{Data: wf})
}

func (s *Server) deleteWorkflow(c echo.Context) error {
	if err := s.store.Delete(requestOwner(c), c.Param("id")); err != nil {
		return notFoundOr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) validateWorkflow(c echo.Context) error {
	wf := &model.Workflow{}
	if err := c.Bind(wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid workflow payload")
	}

	result := workflowengine.ValidateWorkflow(wf)
	return c.JSON(http.StatusOK, &HttpJsonResp[workflowengine.ValidationResult]{Data: result})
}

func (s *Server) validateStoredWorkflow(c echo.Context) error {
	wf, err := s.store.Get(requestOwner(c), c.Param("id"))
	if err != nil {
		return notFoundOr(err)
	}

	result := workflowengine.ValidateWorkflow(wf)
	return c.JSON(http.StatusOK, &HttpJsonResp[workflowengine.ValidationResult]{Data: result})
}

func (s *Server) runWorkflow(c echo.Context) error {
	owner := requestOwner(c)
	id := c.Param("id")

	summary, err := s.executor.Run(c.Request().Context(), owner, id, nil)
	if err != nil {
		if errors.Is(err, workflowstore.ErrWorkflowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if err.Error() == workflowengine.WorkflowAlreadyRunningError {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, &HttpJsonResp[*workflowengine.ExecutionSummary]{Data: summary})
}

func (s *Server) listExecutions(c echo.Context) error {
	owner := requestOwner(c)
	id := c.Param("id")

	// 404 when the workflow itself is unknown, empty list when it simply has
	// no runs yet.
	if _, err := s.store.Get(owner, id); err != nil {
		return notFoundOr(err)
	}

	executions, err := s.store.Executions(owner, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &HttpJsonResp[[]*workflowengine.ExecutionSummary]{Data: executions})
}

func (s *Server) getExecution(c echo.Context) error {
	summary, err := s.store.Execution(requestOwner(c), c.Param("id"), c.Param("executionId"))
	if err != nil {
		return notFoundOr(err)
	}
	return c.JSON(http.StatusOK, &HttpJsonResp[*workflowengine.ExecutionSummary]{Data: summary})
}

func notFoundOr(err error) error {
	if errors.Is(err, workflowstore.ErrWorkflowNotFound) || errors.Is(err, workflowstore.ErrExecutionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}
