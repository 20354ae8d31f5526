package handlers

import (
	"net/http"

	"bms/internal/common"

	"github.com/labstack/echo/v4"
)

// JobRunner is satisfied by the background job scheduler.
type JobRunner interface {
	JobStatusProvider
	RunNow(name string) error
}

type JobHandlers struct {
	jobs JobRunner
}

func NewJobHandlers(jobs JobRunner) *JobHandlers {
	return &JobHandlers{jobs: jobs}
}

// ListJobs reports every scheduled job and its next run.
func (h *JobHandlers) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, h.jobs.GetJobStatus())
}

// RunJob triggers a job outside its schedule. The run is asynchronous.
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	if err := h.jobs.RunNow(name); err != nil {
		return common.SendError(c, "job", err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "triggered",
	})
}
