// internal/workers/matching/parse-search-filters/handler.go
package parsesearchfilters

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"
	"matchmaking-workers/internal/common/validation"
)

const TaskType = "parse-search-filters"

var filterSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"gender":   {"type": "string", "maxLength": 32},
		"religion": {"type": "string", "maxLength": 64},
		"minAge":   {"type": "integer", "minimum": 18, "maximum": 100},
		"maxAge":   {"type": "integer", "minimum": 18, "maximum": 100},
		"page":     {"type": "integer", "minimum": 1},
		"limit":    {"type": "integer", "minimum": 1}
	},
	"additionalProperties": false
}`)

var numericFilters = []string{"minAge", "maxAge", "page", "limit"}

// wildcards mean "no preference" for categorical filters.
var wildcards = map[string]bool{"any": true, "all": true}

type Handler struct {
	config       *Config
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	raw := normalizeRaw(input.RawFilters)

	result, err := filterSchema.Validate(raw)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	out := &Output{Page: 1, Limit: h.config.DefaultLimit}
	if s, ok := raw["gender"].(string); ok {
		out.Gender = strings.ToLower(s)
	}
	if s, ok := raw["religion"].(string); ok {
		out.Religion = s
	}
	if v, ok := intValue(raw["minAge"]); ok {
		out.MinAge = &v
	}
	if v, ok := intValue(raw["maxAge"]); ok {
		out.MaxAge = &v
	}
	if v, ok := intValue(raw["page"]); ok {
		out.Page = v
	}
	if v, ok := intValue(raw["limit"]); ok {
		out.Limit = v
	}

	if out.Limit > h.config.MaxLimit {
		return nil, apperrors.NewInvalidRequestError(
			fmt.Sprintf("limit: must be at most %d, got %d", h.config.MaxLimit, out.Limit))
	}
	if out.MinAge != nil && out.MaxAge != nil && *out.MinAge > *out.MaxAge {
		return nil, apperrors.NewInvalidRequestError(
			fmt.Sprintf("minAge (%d) must not exceed maxAge (%d)", *out.MinAge, *out.MaxAge))
	}

	h.logger.Info("search filters parsed", map[string]interface{}{
		"gender":   out.Gender,
		"religion": out.Religion,
		"page":     out.Page,
		"limit":    out.Limit,
	})

	return out, nil
}

// normalizeRaw trims strings, drops empty values and wildcards, and turns
// numeric strings from query parameters into integers. Anything it cannot
// coerce is left for the schema to reject.
func normalizeRaw(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if (k == "gender" || k == "religion") && wildcards[strings.ToLower(s)] {
				continue
			}
			v = s
		}
		out[k] = v
	}

	for _, k := range numericFilters {
		if s, ok := out[k].(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				out[k] = n
			}
		}
	}
	return out
}

func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
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
