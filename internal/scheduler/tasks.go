package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskConversationRecompute = "conversations.recompute"

const TaskRescoreSweep = "conversations.rescore_sweep"

type ConversationRecomputePayload struct {
	ConversationID string `json:"conversationId"`
}

func NewConversationRecomputeTask(payload ConversationRecomputePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversationRecompute, data), nil
}

func ParseConversationRecomputePayload(task *asynq.Task) (ConversationRecomputePayload, error) {
	var payload ConversationRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ConversationRecomputePayload{}, err
	}
	return payload, nil
}

func NewRescoreSweepTask() *asynq.Task {
	return asynq.NewTask(TaskRescoreSweep, nil)
}
