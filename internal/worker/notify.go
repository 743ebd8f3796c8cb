package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。

// ResumeParseNotifyMessage 通知一次简历解析的结果。
type ResumeParseNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	CandidateID   uint   `json:"candidate_id,omitempty"`
	ObjectKey     string `json:"object_key"`
	ParseSource   string `json:"parse_source,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// MatchRecomputeNotifyMessage 通知一次匹配分重算的结果。
type MatchRecomputeNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	RecomputeID   string `json:"recompute_id"`
	Processed     int    `json:"processed"`
	Skipped       int    `json:"skipped"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

func publishNotify(ctx context.Context, client *redis.Client, userID uint, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
