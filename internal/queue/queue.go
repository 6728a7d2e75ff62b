package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/getbrandflow/brandflow/internal/engine"
	"github.com/hibiken/asynq"
)

const TaskTypePublishDraft = "publish:draft"

type PublishDraftPayload struct {
	DraftID          int64    `json:"draft_id"`
	PublishToWebsite bool     `json:"publish_to_website"`
	PublishToSocial  bool     `json:"publish_to_social"`
	Platforms        []string `json:"platforms,omitempty"`
}

// Scheduler enqueues scheduled drafts for dispatch at their publish time.
// It satisfies engine.Scheduler.
type Scheduler struct {
	client *asynq.Client
}

func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{client: client}
}

func (s *Scheduler) EnqueuePublish(draftID int64, opts engine.PublishOptions, publishAt time.Time) error {
	payload := PublishDraftPayload{
		DraftID:          draftID,
		PublishToWebsite: opts.PublishToWebsite,
		PublishToSocial:  opts.PublishToSocial,
		Platforms:        opts.Platforms,
	}

	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishDraft, taskPayload)

	delay := time.Until(publishAt)
	if delay < 0 {
		delay = 0
	}

	_, err = s.client.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("publish task scheduled", "draft_id", draftID, "publish_at", publishAt)
	return nil
}
