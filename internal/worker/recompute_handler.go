package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"talentTrack/internal/ai"
	"talentTrack/internal/database"
	"talentTrack/internal/errcode"
	"talentTrack/internal/tasks"
)

const (
	recomputeCheckpointPrefix = "match:recompute:checkpoint:"
	recomputeCheckpointTTL    = 24 * time.Hour
)

// MatchRecomputeHandler 负责全量重算匹配分。
// 职位集变化（新建、修改、删除、上下架）后，每个候选人的分数都要重新计算。
// 任务按候选人 ID 升序分页推进，进度写入 Redis 检查点；
// 任务重试时从检查点继续，不会把已完成的页再算一遍。
type MatchRecomputeHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	aiClient    *ai.Client
	pageSize    int
	logger      *slog.Logger
}

// NewMatchRecomputeHandler 创建重算处理器；aiClient 可以为 nil。
func NewMatchRecomputeHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	aiClient *ai.Client,
	pageSize int,
	logger *slog.Logger,
) *MatchRecomputeHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &MatchRecomputeHandler{
		db:          db,
		redisClient: redisClient,
		aiClient:    aiClient,
		pageSize:    pageSize,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *MatchRecomputeHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.MatchRecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("recompute_id", payload.RecomputeID),
	)
	log.Info("starting match recompute task")

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := MatchRecomputeNotifyMessage{
			Type:          "match_recompute",
			Status:        "error",
			RecomputeID:   payload.RecomputeID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishNotify(ctx, h.redisClient, payload.TriggeredBy, notify); err != nil {
			log.Error("publish recompute error notification failed", slog.Any("error", err))
		}
	}()

	var jobs []database.Job
	if err := h.db.WithContext(ctx).Where("active = ?", true).Order("id asc").Find(&jobs).Error; err != nil {
		log.Error("load active jobs failed", slog.Any("error", err))
		return err
	}

	// 已删除或下架职位的旧分数直接清掉，不用逐候选人处理。
	if err := h.pruneStaleMatches(ctx, jobs); err != nil {
		log.Error("prune stale match scores failed", slog.Any("error", err))
		return err
	}

	lastID, err := h.loadCheckpoint(ctx, payload.RecomputeID)
	if err != nil {
		log.Error("load recompute checkpoint failed", slog.Any("error", err))
		return err
	}
	if lastID > 0 {
		log.Info("resuming from checkpoint", slog.Uint64("last_candidate_id", uint64(lastID)))
	}

	processed := 0
	skipped := 0

	for {
		var page []database.Candidate
		if err := h.db.WithContext(ctx).
			Where("id > ?", lastID).
			Order("id asc").
			Limit(h.pageSize).
			Find(&page).Error; err != nil {
			log.Error("load candidate page failed", slog.Any("error", err))
			return err
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			candidate := &page[i]

			rows := scoreCandidateAgainstJobs(ctx, h.aiClient, candidate, jobs)
			if err := replaceMatches(ctx, h.db, candidate, rows); err != nil {
				if errors.Is(err, errVersionConflict) {
					// 刚解析完的简历已按当前职位集打过分，这里不必重写。
					skipped++
				} else {
					log.Error("persist match scores failed",
						slog.Uint64("candidate_id", uint64(candidate.ID)),
						slog.Any("error", err),
					)
					return err
				}
			} else {
				processed++
			}

			lastID = candidate.ID
			if err := h.saveCheckpoint(ctx, payload.RecomputeID, lastID); err != nil {
				log.Error("save recompute checkpoint failed", slog.Any("error", err))
				return err
			}
		}
	}

	if err := h.clearCheckpoint(ctx, payload.RecomputeID); err != nil {
		log.Warn("clear recompute checkpoint failed", slog.Any("error", err))
	}

	notify := MatchRecomputeNotifyMessage{
		Type:          "match_recompute",
		Status:        "completed",
		RecomputeID:   payload.RecomputeID,
		Processed:     processed,
		Skipped:       skipped,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishNotify(ctx, h.redisClient, payload.TriggeredBy, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("match recompute task completed",
		slog.Int("processed", processed),
		slog.Int("skipped", skipped),
		slog.Int("job_count", len(jobs)),
	)
	return nil
}

// pruneStaleMatches 删除不属于当前在招职位集的匹配行。
func (h *MatchRecomputeHandler) pruneStaleMatches(ctx context.Context, jobs []database.Job) error {
	tx := h.db.WithContext(ctx).Unscoped()
	if len(jobs) == 0 {
		return tx.Where("1 = 1").Delete(&database.MatchScore{}).Error
	}
	ids := make([]uint, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	return tx.Where("job_id NOT IN ?", ids).Delete(&database.MatchScore{}).Error
}

func (h *MatchRecomputeHandler) checkpointKey(recomputeID string) string {
	return recomputeCheckpointPrefix + recomputeID
}

func (h *MatchRecomputeHandler) loadCheckpoint(ctx context.Context, recomputeID string) (uint, error) {
	val, err := h.redisClient.Get(ctx, h.checkpointKey(recomputeID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read checkpoint: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse checkpoint value %q: %w", val, err)
	}
	return uint(id), nil
}

func (h *MatchRecomputeHandler) saveCheckpoint(ctx context.Context, recomputeID string, lastID uint) error {
	key := h.checkpointKey(recomputeID)
	if err := h.redisClient.Set(ctx, key, strconv.FormatUint(uint64(lastID), 10), recomputeCheckpointTTL).Err(); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

func (h *MatchRecomputeHandler) clearCheckpoint(ctx context.Context, recomputeID string) error {
	return h.redisClient.Del(ctx, h.checkpointKey(recomputeID)).Err()
}
