package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"matchmaking-workers/internal/common/logger"
)

// JobHandler is implemented by every task handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Worker is one open job subscription.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType.
func StartWorker(client zbc.Client, taskType string, maxJobsActive int, timeout time.Duration, handler JobHandler, log logger.Logger) *Worker {
	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobsActive,
		"timeout":       timeout.String(),
	})
	return &Worker{worker: jw, logger: log, taskType: taskType}
}

func (w *Worker) TaskType() string { return w.taskType }

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
