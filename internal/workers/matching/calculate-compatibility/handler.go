// internal/workers/matching/calculate-compatibility/handler.go
package calculatecompatibility

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

const (
	TaskType = "calculate-compatibility"
)

type Handler struct {
	config       *Config
	lookup       matching.ProfileLookup
	clock        func() time.Time
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, lookup matching.ProfileLookup, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		lookup:       lookup,
		clock:        time.Now,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err, start)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	searcher, err := h.resolve(ctx, input.SearcherProfile, input.UserID, "userId")
	if err != nil {
		return nil, err
	}
	if searcher == nil {
		return nil, apperrors.NewSearcherProfileMissingError(input.UserID)
	}

	candidate, err := h.resolve(ctx, input.CandidateProfile, input.CandidateID, "candidateId")
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, apperrors.NewCandidateNotFoundError(input.CandidateID)
	}

	if searcher.UserID == candidate.UserID {
		return nil, apperrors.NewInvalidRequestError("candidate must differ from the searcher")
	}

	cfg := h.config.Scoring
	cfg.AsOf = h.clock()
	result := matching.Score(*searcher, *candidate, cfg)
	metrics.MatchScores.Observe(float64(result.Value))

	h.logger.Debug("compatibility calculated", map[string]interface{}{
		"userId":      searcher.UserID,
		"candidateId": candidate.UserID,
		"score":       result.Value,
	})

	return &Output{
		MatchScore:   result.Value,
		MatchReasons: result.Reasons,
		Qualifies:    result.Value >= cfg.ScoreThreshold,
	}, nil
}

// resolve returns the inline profile when given, otherwise looks the id up.
// A nil profile with a nil error means the member has no usable profile.
func (h *Handler) resolve(ctx context.Context, inline *models.Profile, id, field string) (*models.Profile, error) {
	if inline != nil {
		p, err := models.NewProfile(toProfileInput(inline))
		if err != nil {
			return nil, err
		}
		return &p, nil
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewInvalidRequestError(field + " is required")
	}
	return h.lookup.FindByUserID(ctx, id)
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error, start time.Time) {
	metrics.ObserveJob(TaskType, start, string(apperrors.FromMatchingError(err).Code))
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
