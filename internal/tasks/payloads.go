package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeParse    = "resume:parse"
	TypeMatchRecompute = "match:recompute"
)

// ResumeParsePayload 描述解析一份上传简历所需的最小信息。
type ResumeParsePayload struct {
	ObjectKey     string `json:"object_key"`
	ContentType   string `json:"content_type"`
	UploaderID    uint   `json:"uploader_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumeParseTask 构造一个新的简历解析任务。
func NewResumeParseTask(objectKey, contentType string, uploaderID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeParsePayload{
		ObjectKey:     objectKey,
		ContentType:   contentType,
		UploaderID:    uploaderID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeParse, payload), nil
}

// MatchRecomputePayload 描述一次全量匹配分重算。
// RecomputeID 在重试之间保持不变，worker 以它为键在 Redis 里做断点记录。
type MatchRecomputePayload struct {
	RecomputeID   string `json:"recompute_id"`
	TriggerJobID  uint   `json:"trigger_job_id"`
	TriggeredBy   uint   `json:"triggered_by"`
	CorrelationID string `json:"correlation_id"`
}

// NewMatchRecomputeTask 构造一个新的匹配分重算任务。
func NewMatchRecomputeTask(recomputeID string, triggerJobID, triggeredBy uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(MatchRecomputePayload{
		RecomputeID:   recomputeID,
		TriggerJobID:  triggerJobID,
		TriggeredBy:   triggeredBy,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMatchRecompute, payload), nil
}
