// internal/workers/matching/search-profiles/handler.go
package searchprofiles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"
	"matchmaking-workers/internal/common/observability"
	"matchmaking-workers/internal/matching"
)

const (
	TaskType = "search-profiles"
)

type Handler struct {
	config       *Config
	ranker       *matching.Ranker
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, ranker *matching.Ranker, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ranker:       ranker,
		obs:          obs,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	searchID := uuid.NewString()
	ctx, span := h.obs.StartSpan(ctx, "matching.search",
		attribute.String("matching.search_id", searchID),
		attribute.String("matching.user_id", input.UserID),
		attribute.Int("matching.page", input.Page),
		attribute.Int("matching.limit", input.Limit),
	)
	defer span.End()

	result, err := h.ranker.Search(ctx, input.toSearchRequest())
	if err != nil {
		metrics.Searches.WithLabelValues(string(apperrors.FromMatchingError(err).Code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.Searches.WithLabelValues("ok").Inc()
	metrics.CandidatesScored.Add(float64(result.Fetched))
	metrics.CandidatesQualified.Add(float64(result.Qualified))
	metrics.ResultsReturned.Observe(float64(len(result.Items)))
	for _, item := range result.Items {
		metrics.MatchScores.Observe(float64(item.MatchScore))
	}

	span.SetAttributes(
		attribute.Int("matching.fetched", result.Fetched),
		attribute.Int("matching.qualified", result.Qualified),
		attribute.Int("matching.returned", len(result.Items)),
		attribute.Bool("matching.has_more", result.HasMore),
	)

	h.logger.Info("profiles ranked", map[string]interface{}{
		"searchId":  searchID,
		"userId":    input.UserID,
		"page":      result.Page,
		"returned":  len(result.Items),
		"qualified": result.Qualified,
		"hasMore":   result.HasMore,
	})

	return &Output{
		Items:   result.Items,
		Page:    result.Page,
		Limit:   result.Limit,
		HasMore: result.HasMore,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := string(apperrors.FromMatchingError(err).Code)
	metrics.ObserveJob(TaskType, start, code)
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
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
