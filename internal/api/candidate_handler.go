package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"talentTrack/internal/api/middleware"
	"talentTrack/internal/database"
	"talentTrack/internal/tasks"
	"talentTrack/internal/textdoc"
)

// CandidateHandler 负责候选人的上传、查询与维护。
// 上传只落对象存储并入队解析任务，候选人记录由 worker 异步创建。
type CandidateHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     ObjectStore
	logger      *slog.Logger
	clamdAddr   string
	maxBytes    int64
}

// NewCandidateHandler 构造 CandidateHandler。
func NewCandidateHandler(db *gorm.DB, asynqClient *asynq.Client, store ObjectStore, logger *slog.Logger, clamdAddr string, maxBytes int64) *CandidateHandler {
	return &CandidateHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     store,
		logger:      logger,
		clamdAddr:   clamdAddr,
		maxBytes:    maxBytes,
	}
}

var errInvalidCandidateID = errors.New("invalid candidate id")

type candidateListItem struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	ParseSource string    `json:"parse_source"`
	Skills      []string  `json:"skills"`
	CreatedAt   time.Time `json:"created_at"`
}

type candidateResponse struct {
	ID          uint                        `json:"id"`
	Name        string                      `json:"name"`
	Email       string                      `json:"email"`
	Phone       string                      `json:"phone,omitempty"`
	ParseSource string                      `json:"parse_source"`
	Skills      []string                    `json:"skills"`
	Experience  []database.ProfileRole      `json:"experience"`
	Education   []database.ProfileEducation `json:"education"`
	ResumeKey   string                      `json:"resume_key,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func newCandidateResponse(c database.Candidate) candidateResponse {
	profile := c.DecodeProfile()
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	if profile.Experience == nil {
		profile.Experience = []database.ProfileRole{}
	}
	if profile.Education == nil {
		profile.Education = []database.ProfileEducation{}
	}
	return candidateResponse{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		ParseSource: c.ParseSource,
		Skills:      profile.Skills,
		Experience:  profile.Experience,
		Education:   profile.Education,
		ResumeKey:   c.ResumeKey,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

var uploadExtensions = map[string]string{
	textdoc.MIMEPlainText: ".txt",
	textdoc.MIMEPDF:       ".pdf",
	textdoc.MIMEDocx:      ".docx",
}

// UploadResume 接收一份简历文件，扫描后写入对象存储并入队解析任务。
// 解析结果通过 WebSocket 通知上传者，接口本身立即返回 202。
func (h *CandidateHandler) UploadResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	if h.maxBytes > 0 && file.Size > h.maxBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	ext, supported := uploadExtensions[contentType]
	if !supported {
		Error(c, http.StatusUnsupportedMediaType, "unsupported file type")
		return
	}

	if h.clamdAddr != "" {
		if err := h.scanUpload(file); err != nil {
			if errors.Is(err, errMaliciousFile) {
				BadRequest(c, "malicious file detected")
			} else {
				h.loggerFromContext(c).Error("scan file failed", slog.Any("error", err))
				Internal(c, "failed to scan file")
			}
			return
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("resumes/%s%s", uuid.NewString(), ext)
	if _, err := h.storage.UploadFile(c.Request.Context(), objectKey, fileReader, file.Size, contentType); err != nil {
		h.loggerFromContext(c).Error("upload resume failed", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewResumeParseTask(objectKey, contentType, userID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3))
	if err != nil {
		h.loggerFromContext(c).Error("enqueue resume parse failed", slog.Any("error", err))
		Internal(c, "failed to enqueue resume parsing")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "resume accepted for parsing",
		"task_id":    info.ID,
		"object_key": objectKey,
	})
}

var errMaliciousFile = errors.New("malicious file detected")

func (h *CandidateHandler) scanUpload(file *multipart.FileHeader) error {
	fileReader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}

// ListCandidates 分页列出候选人。
func (h *CandidateHandler) ListCandidates(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&database.Candidate{})
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		Internal(c, "failed to count candidates")
		return
	}

	var candidates []database.Candidate
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&candidates).Error; err != nil {
		Internal(c, "failed to list candidates")
		return
	}

	items := make([]candidateListItem, 0, len(candidates))
	for _, candidate := range candidates {
		profile := candidate.DecodeProfile()
		if profile.Skills == nil {
			profile.Skills = []string{}
		}
		items = append(items, candidateListItem{
			ID:          candidate.ID,
			Name:        candidate.Name,
			Email:       candidate.Email,
			Phone:       candidate.Phone,
			ParseSource: candidate.ParseSource,
			Skills:      profile.Skills,
			CreatedAt:   candidate.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// GetCandidate 返回单个候选人的完整档案。
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	candidate, err := h.getCandidate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.replyCandidateError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCandidateResponse(*candidate))
}

type updateCandidateRequest struct {
	Name       *string                      `json:"name"`
	Phone      *string                      `json:"phone"`
	Skills     *[]string                    `json:"skills"`
	Experience *[]database.ProfileRole      `json:"experience"`
	Education  *[]database.ProfileEducation `json:"education"`
}

// UpdateCandidate 人工修正候选人档案。
// 技能变化后旧分数不再可信，入队一次全量重算。
func (h *CandidateHandler) UpdateCandidate(c *gin.Context) {
	var req updateCandidateRequest
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
	candidate, err := h.getCandidate(ctx, c.Param("id"))
	if err != nil {
		h.replyCandidateError(c, err)
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}

	skillsChanged := false
	if req.Skills != nil || req.Experience != nil || req.Education != nil {
		profile := candidate.DecodeProfile()
		if req.Skills != nil {
			profile.Skills = *req.Skills
			skillsChanged = true
		}
		if req.Experience != nil {
			profile.Experience = *req.Experience
		}
		if req.Education != nil {
			profile.Education = *req.Education
		}
		encoded, err := database.EncodeProfile(profile)
		if err != nil {
			Internal(c, "failed to encode profile")
			return
		}
		updates["profile"] = encoded
	}

	if len(updates) == 0 {
		BadRequest(c, "no fields to update")
		return
	}

	if err := h.db.WithContext(ctx).Model(candidate).Updates(updates).Error; err != nil {
		Internal(c, "failed to update candidate")
		return
	}
	if err := h.db.WithContext(ctx).First(candidate, candidate.ID).Error; err != nil {
		Internal(c, "failed to reload candidate")
		return
	}

	if skillsChanged {
		if err := h.enqueueRecompute(c, userID); err != nil {
			h.loggerFromContext(c).Error("enqueue match recompute failed", slog.Any("error", err))
		}
	}

	c.JSON(http.StatusOK, newCandidateResponse(*candidate))
}

// DeleteCandidate 删除候选人、其匹配行以及对象存储里的简历。
func (h *CandidateHandler) DeleteCandidate(c *gin.Context) {
	ctx := c.Request.Context()
	candidate, err := h.getCandidate(ctx, c.Param("id"))
	if err != nil {
		h.replyCandidateError(c, err)
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("candidate_id = ?", candidate.ID).Delete(&database.MatchScore{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&database.Candidate{}, candidate.ID).Error
	})
	if err != nil {
		Internal(c, "failed to delete candidate")
		return
	}

	if candidate.ResumeKey != "" {
		if err := h.storage.DeleteObject(ctx, candidate.ResumeKey); err != nil {
			// 对象删除失败不影响删除结果，留给运维清理。
			h.loggerFromContext(c).Warn("delete resume object failed",
				slog.String("object_key", candidate.ResumeKey),
				slog.Any("error", err),
			)
		}
	}

	c.Status(http.StatusNoContent)
}

type matchListItem struct {
	JobID       uint   `json:"job_id"`
	JobTitle    string `json:"job_title"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
	Source      string `json:"source"`
}

// ListMatches 返回候选人对每个在招职位的匹配分，按分数降序。
func (h *CandidateHandler) ListMatches(c *gin.Context) {
	ctx := c.Request.Context()
	candidate, err := h.getCandidate(ctx, c.Param("id"))
	if err != nil {
		h.replyCandidateError(c, err)
		return
	}

	var items []matchListItem
	if err := h.db.WithContext(ctx).
		Model(&database.MatchScore{}).
		Select("match_scores.job_id, jobs.title AS job_title, match_scores.score, match_scores.explanation, match_scores.source").
		Joins("JOIN jobs ON jobs.id = match_scores.job_id AND jobs.deleted_at IS NULL").
		Where("match_scores.candidate_id = ?", candidate.ID).
		Order("match_scores.score DESC, match_scores.job_id ASC").
		Scan(&items).Error; err != nil {
		Internal(c, "failed to list matches")
		return
	}
	if items == nil {
		items = []matchListItem{}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetResumeLink 生成原始简历文件的预签名下载链接。
func (h *CandidateHandler) GetResumeLink(c *gin.Context) {
	ctx := c.Request.Context()
	candidate, err := h.getCandidate(ctx, c.Param("id"))
	if err != nil {
		h.replyCandidateError(c, err)
		return
	}

	if candidate.ResumeKey == "" {
		NotFound(c, "candidate has no stored resume")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(ctx, candidate.ResumeKey, 5*time.Minute)
	if err != nil {
		h.loggerFromContext(c).Error("generate resume link failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *CandidateHandler) enqueueRecompute(c *gin.Context, userID uint) error {
	task, err := tasks.NewMatchRecomputeTask(uuid.NewString(), 0, userID, middleware.GetCorrelationID(c))
	if err != nil {
		return err
	}
	_, err = h.asynqClient.Enqueue(task, asynq.MaxRetry(3))
	return err
}

func (h *CandidateHandler) getCandidate(ctx context.Context, idParam string) (*database.Candidate, error) {
	id, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidCandidateID
	}

	var candidate database.Candidate
	if err := h.db.WithContext(ctx).First(&candidate, uint(id)).Error; err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (h *CandidateHandler) replyCandidateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidCandidateID):
		BadRequest(c, "invalid candidate id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "candidate not found")
	default:
		Internal(c, "failed to query candidate")
	}
}

func (h *CandidateHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
