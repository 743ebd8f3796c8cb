package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"talentTrack/internal/ai"
	"talentTrack/internal/database"
	"talentTrack/internal/errcode"
	"talentTrack/internal/storage"
	"talentTrack/internal/tasks"
	"talentTrack/internal/textdoc"
)

// ResumeParseHandler 负责消费简历解析任务：
// 取回对象 → 转纯文本 → 模型解析（失败退回启发式）→ 入库 → 对全部在招职位打分。
type ResumeParseHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	aiClient    *ai.Client
	logger      *slog.Logger
}

// NewResumeParseHandler 创建任务处理器；aiClient 可以为 nil，表示只走启发式。
func NewResumeParseHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	aiClient *ai.Client,
	logger *slog.Logger,
) *ResumeParseHandler {
	return &ResumeParseHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		aiClient:    aiClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ResumeParseHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ResumeParsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("object_key", payload.ObjectKey),
		slog.Uint64("uploader_id", uint64(payload.UploaderID)),
	)
	log.Info("starting resume parse task")

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := ResumeParseNotifyMessage{
			Type:          "resume_parse",
			Status:        "error",
			ObjectKey:     payload.ObjectKey,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishNotify(ctx, h.redisClient, payload.UploaderID, notify); err != nil {
			log.Error("publish parse error notification failed", slog.Any("error", err))
		}
	}()

	data, err := h.storage.ReadObject(ctx, payload.ObjectKey)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			log.Warn("uploaded object vanished, skipping task")
			return nil
		}
		log.Error("read resume object failed", slog.Any("error", err))
		return err
	}

	text, err := textdoc.ExtractText(payload.ContentType, data)
	if err != nil {
		// 文件类型不支持或文件损坏都不是重试能解决的问题。
		log.Warn("extract resume text failed", slog.Any("error", err))
		return h.notifyRejected(ctx, payload, errcode.ResourceMissing, "could not extract text from resume")
	}

	outcome := ai.ParseWithFallback(ctx, h.aiClient, text)
	profile := outcome.Profile

	if profile.Email == "" {
		// 存储层要求邮箱非空且唯一；没有邮箱的候选人无法入库。
		log.Warn("resume has no recoverable email, rejecting",
			slog.String("parse_source", string(outcome.Source)),
		)
		return h.notifyRejected(ctx, payload, errcode.IncompleteProfile, "no email address found in resume")
	}

	candidate, err := h.upsertCandidate(ctx, payload, outcome)
	if err != nil {
		log.Error("persist candidate failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("candidate_id", uint64(candidate.ID)))

	var jobs []database.Job
	if err := h.db.WithContext(ctx).Where("active = ?", true).Order("id asc").Find(&jobs).Error; err != nil {
		log.Error("load active jobs failed", slog.Any("error", err))
		return err
	}

	rows := scoreCandidateAgainstJobs(ctx, h.aiClient, candidate, jobs)
	if err := replaceMatches(ctx, h.db, candidate, rows); err != nil {
		if errors.Is(err, errVersionConflict) {
			// 并发重算抢先写过了，它的结果已经覆盖全职位集。
			log.Warn("match version conflict, keeping concurrent writer's scores")
		} else {
			log.Error("persist match scores failed", slog.Any("error", err))
			return err
		}
	}

	notify := ResumeParseNotifyMessage{
		Type:          "resume_parse",
		Status:        "completed",
		CandidateID:   candidate.ID,
		ObjectKey:     payload.ObjectKey,
		ParseSource:   string(outcome.Source),
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishNotify(ctx, h.redisClient, payload.UploaderID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("resume parse task completed",
		slog.String("parse_source", string(outcome.Source)),
		slog.Int("skill_count", len(profile.Skills)),
		slog.Int("job_count", len(jobs)),
	)
	return nil
}

func (h *ResumeParseHandler) notifyRejected(ctx context.Context, payload tasks.ResumeParsePayload, code int, message string) error {
	notify := ResumeParseNotifyMessage{
		Type:          "resume_parse",
		Status:        "rejected",
		ObjectKey:     payload.ObjectKey,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     code,
		ErrorMessage:  message,
	}
	return publishNotify(ctx, h.redisClient, payload.UploaderID, notify)
}

// upsertCandidate 以邮箱为键新建或覆盖候选人。
// 重复上传同一邮箱的简历视为档案更新，而不是冲突。
func (h *ResumeParseHandler) upsertCandidate(ctx context.Context, payload tasks.ResumeParsePayload, outcome ai.ParseOutcome) (*database.Candidate, error) {
	experience := make([]database.ProfileRole, 0, len(outcome.Profile.Experience))
	for _, e := range outcome.Profile.Experience {
		experience = append(experience, database.ProfileRole{
			JobTitle:    e.JobTitle,
			Company:     e.Company,
			Duration:    e.Duration,
			Description: e.Description,
		})
	}
	education := make([]database.ProfileEducation, 0, len(outcome.Profile.Education))
	for _, e := range outcome.Profile.Education {
		education = append(education, database.ProfileEducation{
			Degree:      e.Degree,
			Institution: e.Institution,
			Year:        e.Year,
		})
	}

	profileJSON, err := json.Marshal(database.CandidateProfile{
		Skills:     outcome.Profile.Skills,
		Experience: experience,
		Education:  education,
	})
	if err != nil {
		return nil, err
	}

	source := database.ParseSourceHeuristic
	if outcome.Source == ai.SourceModel {
		source = database.ParseSourceModel
	}

	var candidate database.Candidate
	err = h.db.WithContext(ctx).Where("email = ?", outcome.Profile.Email).First(&candidate).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"name":         outcome.Profile.Name,
			"phone":        outcome.Profile.Phone,
			"profile":      datatypes.JSON(profileJSON),
			"resume_key":   payload.ObjectKey,
			"parse_source": source,
		}
		if err := h.db.WithContext(ctx).Model(&candidate).Updates(updates).Error; err != nil {
			return nil, err
		}
		if err := h.db.WithContext(ctx).First(&candidate, candidate.ID).Error; err != nil {
			return nil, err
		}
		return &candidate, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		candidate = database.Candidate{
			Name:        outcome.Profile.Name,
			Email:       outcome.Profile.Email,
			Phone:       outcome.Profile.Phone,
			Profile:     datatypes.JSON(profileJSON),
			ResumeKey:   payload.ObjectKey,
			ParseSource: source,
		}
		if err := h.db.WithContext(ctx).Create(&candidate).Error; err != nil {
			return nil, err
		}
		return &candidate, nil
	default:
		return nil, err
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
