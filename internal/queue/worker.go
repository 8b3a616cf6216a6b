package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

func (w *Worker) HandleDispatchPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return w.s.ProcessPost(ctx, payload.PostID)
}
