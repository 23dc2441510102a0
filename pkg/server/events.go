package server

import (
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"clasificador/pkg/batch"
	"clasificador/pkg/utils"
)

// GET /api/jobs/:id/events streams job progress as server-sent events until
// the job ends or the client goes away.
func (s *Server) handleGetEvents(c echo.Context) error {
	id := c.Param("id")
	ch, stop, err := s.Registry.Subscribe(id)
	if err != nil {
		return jobError(c, err)
	}
	defer stop()

	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx := c.Request().Context()
	var last batch.Status
	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-ch:
			if !ok {
				return w.Event("done", last)
			}
			last = st
			if err := w.Event("progress", st); err != nil {
				log.Warn("SSE write error", "id", id, "error", err)
				return nil
			}
		}
	}
}
