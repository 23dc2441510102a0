package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"clasificador/pkg/batch"
	"clasificador/pkg/queue"
	"clasificador/pkg/utils"
)

type classifyReq struct {
	Narrative *string `json:"narrative"`
	Row       int     `json:"row"`
}

// POST /api/classify
func (s *Server) handlePostClassify(c echo.Context) error {
	var req classifyReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/classify", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	row := batch.Row{Index: req.Row, Narrative: req.Narrative}
	out := s.Cascade.Classify(c.Request().Context(), row.Text(), row.Index)
	return c.JSON(http.StatusOK, out)
}

type jobReq struct {
	Rows []struct {
		Fields map[string]string `json:"fields"`
	} `json:"rows"`
}

// POST /api/jobs
func (s *Server) handlePostJob(c echo.Context) error {
	var req jobReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/jobs", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if len(req.Rows) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "rows are required")
	}

	records := make([]map[string]string, len(req.Rows))
	for i, r := range req.Rows {
		records[i] = r.Fields
	}
	job := s.Registry.Register(batch.NewRows(records))

	statusCh, errCh, err := s.Queue.Add(job)
	if err != nil {
		_ = s.Registry.Remove(job.ID)
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueStopped) {
			return c.JSON(http.StatusServiceUnavailable, utils.ErrJSON(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	go s.watchJob(job.ID, statusCh, errCh)

	return c.JSON(http.StatusAccepted, job.Status())
}

// watchJob follows a queued job until both its status stream and its error
// channel are closed, then logs how it ended.
func (s *Server) watchJob(id string, statusCh <-chan batch.Status, errCh <-chan error) (batch.Status, error) {
	var (
		last   batch.Status
		jobErr error
	)
	for statusCh != nil || errCh != nil {
		select {
		case <-s.Ctx.Done():
			return last, s.Ctx.Err()
		case st, ok := <-statusCh:
			if !ok {
				statusCh = nil
				continue
			}
			last = st
			log.Debug("job progress", "id", id, "state", st.State, "processed", st.Processed, "total", st.Total)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			jobErr = err
		}
	}

	if jobErr != nil {
		log.Error("job errored", "id", id, "state", last.State, "processed", last.Processed, "error", jobErr)
		return last, jobErr
	}
	log.Info("job ended", "id", id, "state", last.State, "processed", last.Processed, "total", last.Total, "strategies", last.Strategies)
	return last, nil
}

// POST /api/jobs/:id/cancel
func (s *Server) handlePostCancel(c echo.Context) error {
	id := c.Param("id")
	if err := s.Registry.Cancel(id); err != nil {
		return jobError(c, err)
	}
	st, err := s.Registry.Snapshot(id)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// DELETE /api/jobs/:id
func (s *Server) handleDeleteJob(c echo.Context) error {
	id := c.Param("id")
	if err := s.Registry.Remove(id); err != nil {
		return jobError(c, err)
	}
	s.Results.Drop(id)
	return c.NoContent(http.StatusNoContent)
}
