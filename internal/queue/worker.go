package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/engine"
	"github.com/hibiken/asynq"
)

type Worker struct {
	engine *engine.Engine
}

func NewWorker(e *engine.Engine) *Worker {
	return &Worker{engine: e}
}

func (w *Worker) HandlePublishDraftTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishDraftPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	outcome, err := w.engine.PublishScheduled(ctx, payload.DraftID, engine.PublishOptions{
		PublishToWebsite: payload.PublishToWebsite,
		PublishToSocial:  payload.PublishToSocial,
		Platforms:        payload.Platforms,
	})
	if err != nil {
		return err
	}

	if !outcome.Success {
		// Failures are already per-destination records; the task itself is
		// done, retrying it whole would risk double-publishing successes.
		slog.Info("scheduled dispatch completed with failures", "draft_id", payload.DraftID, "error", outcome.Error)
	}
	return nil
}
