// internal/workers/communication/send-match-digest/handler.go
package sendmatchdigest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	awsx "matchmaking-workers/internal/common/aws"
	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

const (
	TaskType = "send-match-digest"
)

// ContactFinder resolves where a member's digest goes. A nil contact with a
// nil error means the member is unknown.
type ContactFinder interface {
	FindContact(ctx context.Context, userID string) (*models.Contact, error)
}

type Handler struct {
	config       *Config
	contacts     ContactFinder
	sesClient    awsx.SESService
	snsClient    awsx.SNSService
	clock        func() time.Time
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, contacts ContactFinder, sesClient awsx.SESService, snsClient awsx.SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		contacts:     contacts,
		sesClient:    sesClient,
		snsClient:    snsClient,
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
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		recipientID = strings.TrimSpace(input.UserID)
	}
	if recipientID == "" {
		return nil, apperrors.NewInvalidRequestError("recipientId is required")
	}

	contact, err := h.contacts.FindContact(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, apperrors.NewRecipientNotFoundError(recipientID)
	}

	matches := topMatches(input.Items, h.config.DigestSize)
	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         h.clock().UTC().Format(time.RFC3339),
		MatchCount:     len(matches),
		Channels:       []string{},
	}

	if len(matches) == 0 || !contact.OptedIn {
		h.logger.Info("digest skipped", map[string]interface{}{
			"recipientId": recipientID,
			"matches":     len(matches),
			"optedIn":     contact.OptedIn,
		})
		return out, nil
	}

	if h.config.EmailEnabled && contact.Email != "" {
		if err := h.sendEmail(ctx, contact, matches); err != nil {
			metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, StatusFailed).Inc()
			return nil, apperrors.NewNotificationSendFailedError(models.ChannelEmail, err)
		}
		metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, StatusSent).Inc()
		out.Channels = append(out.Channels, models.ChannelEmail)
	}

	best := matches[0].MatchScore
	if h.config.SMSEnabled && contact.Phone != "" && best >= h.config.HighScoreSMS {
		if err := h.sendSMS(ctx, contact.Phone, smsMessage(best, len(matches))); err != nil {
			metrics.NotificationsSent.WithLabelValues(models.ChannelSMS, StatusFailed).Inc()
			h.logger.Warn("sms delivery failed", map[string]interface{}{
				"recipientId": recipientID,
				"error":       err.Error(),
			})
			if len(out.Channels) == 0 {
				out.Status = StatusFailed
				return out, nil
			}
		} else {
			metrics.NotificationsSent.WithLabelValues(models.ChannelSMS, StatusSent).Inc()
			out.Channels = append(out.Channels, models.ChannelSMS)
		}
	}

	if len(out.Channels) > 0 {
		out.Status = StatusSent
	}

	h.logger.Info("digest processed", map[string]interface{}{
		"recipientId":    recipientID,
		"notificationId": out.NotificationID,
		"status":         out.Status,
		"channels":       out.Channels,
		"matches":        out.MatchCount,
	})

	return out, nil
}

// topMatches returns at most n items, best first.
func topMatches(items []matching.ScoredCandidate, n int) []matching.ScoredCandidate {
	sorted := make([]matching.ScoredCandidate, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MatchScore > sorted[j].MatchScore
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func (h *Handler) sendEmail(ctx context.Context, contact *models.Contact, matches []matching.ScoredCandidate) error {
	text, html, err := renderDigest(newDigestView(contact.FirstName, matches))
	if err != nil {
		return err
	}
	_, err = h.sesClient.SendEmail(ctx, awsx.NewEmailInput(h.config.FromEmail, contact.Email, digestSubject, text, html))
	return err
}

func (h *Handler) sendSMS(ctx context.Context, phone, message string) error {
	_, err := h.snsClient.Publish(ctx, awsx.NewSMSInput(phone, message))
	return err
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
