package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"talentTrack/internal/api/middleware"
	"talentTrack/internal/database"
	"talentTrack/internal/tasks"
)

// JobHandler 负责职位的增删改查。
// 任何改变在招职位集的操作都会入队一次全量匹配分重算。
type JobHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	logger      *slog.Logger
}

// NewJobHandler 构造 JobHandler。
func NewJobHandler(db *gorm.DB, asynqClient *asynq.Client, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		db:          db,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

var errInvalidJobID = errors.New("invalid job id")

type jobRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description string   `json:"description"`
	Skills      []string `json:"skills" binding:"required,min=1"`
	Active      *bool    `json:"active"`
}

type jobResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Skills      []string  `json:"skills"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newJobResponse(job database.Job) jobResponse {
	skills := job.SkillList()
	if skills == nil {
		skills = []string{}
	}
	return jobResponse{
		ID:          job.ID,
		Title:       job.Title,
		Description: job.Description,
		Skills:      skills,
		Active:      job.Active,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

func encodeSkills(skills []string) (datatypes.JSON, error) {
	cleaned := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		cleaned = append(cleaned, skill)
	}
	data, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// CreateJob 创建职位并触发重算。
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	skillsJSON, err := encodeSkills(req.Skills)
	if err != nil {
		Internal(c, "failed to encode skills")
		return
	}

	job := database.Job{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Skills:      skillsJSON,
		Active:      true,
	}
	if req.Active != nil {
		job.Active = *req.Active
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&job).Error; err != nil {
		Internal(c, "failed to create job")
		return
	}

	h.enqueueRecompute(c, job.ID, userID)
	c.JSON(http.StatusCreated, newJobResponse(job))
}

// ListJobs 列出职位，默认全部，可用 active=true 过滤在招职位。
func (h *JobHandler) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&database.Job{})

	if activeParam := c.Query("active"); activeParam != "" {
		active, err := strconv.ParseBool(activeParam)
		if err != nil {
			BadRequest(c, "invalid active filter")
			return
		}
		query = query.Where("active = ?", active)
	}

	var jobs []database.Job
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		Internal(c, "failed to list jobs")
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, newJobResponse(job))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetJob 返回单个职位。
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.getJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.replyJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(*job))
}

// UpdateJob 覆盖职位并触发重算。
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	job, err := h.getJob(ctx, c.Param("id"))
	if err != nil {
		h.replyJobError(c, err)
		return
	}

	skillsJSON, err := encodeSkills(req.Skills)
	if err != nil {
		Internal(c, "failed to encode skills")
		return
	}

	updates := map[string]any{
		"title":       strings.TrimSpace(req.Title),
		"description": req.Description,
		"skills":      skillsJSON,
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if err := h.db.WithContext(ctx).Model(job).Updates(updates).Error; err != nil {
		Internal(c, "failed to update job")
		return
	}
	if err := h.db.WithContext(ctx).First(job, job.ID).Error; err != nil {
		Internal(c, "failed to reload job")
		return
	}

	h.enqueueRecompute(c, job.ID, userID)
	c.JSON(http.StatusOK, newJobResponse(*job))
}

// DeleteJob 删除职位、清掉它的匹配行并触发重算。
func (h *JobHandler) DeleteJob(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	job, err := h.getJob(ctx, c.Param("id"))
	if err != nil {
		h.replyJobError(c, err)
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("job_id = ?", job.ID).Delete(&database.MatchScore{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&database.Job{}, job.ID).Error
	})
	if err != nil {
		Internal(c, "failed to delete job")
		return
	}

	h.enqueueRecompute(c, job.ID, userID)
	c.Status(http.StatusNoContent)
}

func (h *JobHandler) enqueueRecompute(c *gin.Context, jobID, userID uint) {
	task, err := tasks.NewMatchRecomputeTask(uuid.NewString(), jobID, userID, middleware.GetCorrelationID(c))
	if err != nil {
		h.loggerFromContext(c).Error("create recompute task failed", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		// 职位变更已经落库，重算失败只记日志，下次变更会补上。
		h.loggerFromContext(c).Error("enqueue match recompute failed", slog.Any("error", err))
	}
}

func (h *JobHandler) getJob(ctx context.Context, idParam string) (*database.Job, error) {
	id, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidJobID
	}

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, uint(id)).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (h *JobHandler) replyJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidJobID):
		BadRequest(c, "invalid job id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "job not found")
	default:
		Internal(c, "failed to query job")
	}
}

func (h *JobHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
