package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"clasificador/pkg/batch"
	"clasificador/pkg/classify"
	"clasificador/pkg/utils"
)

// sampleNarrative backs GET /api/test.
const sampleNarrative = "El día 15 de mayo de 2024, en horas de la madrugada, se produjo un robo a mano armada en la vía pública donde un sujeto de sexo masculino interceptó a la victima con un arma de fuego y le sustrajo sus pertenencias."

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":    "Clasificador de Hechos Delictivos",
		"status":     "ok",
		"strategies": s.Cascade.Strategies(),
	})
}

// GET /api/test
func (s *Server) handleGetTest(c echo.Context) error {
	out := s.Cascade.Classify(c.Request().Context(), sampleNarrative, 0)
	return c.JSON(http.StatusOK, map[string]any{
		"narrative": sampleNarrative,
		"outcome":   out,
	})
}

// GET /api/jobs
func (s *Server) handleGetJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"jobs": s.Registry.List()})
}

// GET /api/jobs/:id
func (s *Server) handleGetJob(c echo.Context) error {
	st, err := s.Registry.Snapshot(c.Param("id"))
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

type resultsResp struct {
	Status  batch.Status       `json:"status"`
	Results []classify.Outcome `json:"results"`
}

// GET /api/jobs/:id/results
func (s *Server) handleGetResults(c echo.Context) error {
	id := c.Param("id")
	st, err := s.Registry.Snapshot(id)
	if err != nil {
		return jobError(c, err)
	}
	return c.JSON(http.StatusOK, resultsResp{Status: st, Results: s.Results.Results(id)})
}

func jobError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, batch.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, utils.ErrJSON(err.Error()))
	case errors.Is(err, batch.ErrJobActive), errors.Is(err, batch.ErrAlreadyProcessing):
		return c.JSON(http.StatusConflict, utils.ErrJSON(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
}
