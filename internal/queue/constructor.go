package queue

import (
	"github.com/gcssytemsuser/socialai-backend/internal/scheduler"
)

// Worker handles delayed dispatch tasks. It is only a fast path: the handler
// funnels into the scheduler's claim-and-dispatch, so a task for a post the
// periodic scan already picked up is a no-op.
type Worker struct {
	s *scheduler.Scheduler
}

func NewWorker(s *scheduler.Scheduler) *Worker {
	return &Worker{s: s}
}

const TaskTypeDispatchPost = "dispatch:post"

type DispatchPostPayload struct {
	PostID int64 `json:"post_id"`
}
