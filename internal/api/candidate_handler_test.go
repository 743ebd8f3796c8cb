package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"talentTrack/internal/database"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
	presign  map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uploaded: map[string][]byte{},
		presign:  map[string]string{},
	}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if v, ok := s.presign[objectKey]; ok {
		return v, nil
	}
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.Candidate{}, &database.Job{}, &database.MatchScore{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestAsynqClient 返回一个指向不可达地址的 asynq 客户端。
// 入队失败只会被记录日志的路径可以用它来测试。
func newTestAsynqClient(t *testing.T) *asynq.Client {
	t.Helper()
	return asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:0"})
}

func newCandidateTestHandler(t *testing.T, db *gorm.DB, store *fakeStorage) *CandidateHandler {
	t.Helper()
	return NewCandidateHandler(db, newTestAsynqClient(t), store, nil, "", 5*1024*1024)
}

func seedTestCandidate(t *testing.T, db *gorm.DB, email string, skills []string) *database.Candidate {
	t.Helper()
	profile, err := database.EncodeProfile(database.CandidateProfile{Skills: skills})
	if err != nil {
		t.Fatalf("encode profile: %v", err)
	}
	candidate := database.Candidate{
		Name:        "Jane Smith",
		Email:       email,
		Phone:       "555-123-4567",
		Profile:     profile,
		ResumeKey:   "resumes/test.pdf",
		ParseSource: database.ParseSourceHeuristic,
	}
	if err := db.Create(&candidate).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return &candidate
}

func newTestContext(t *testing.T, method, path string, body *bytes.Buffer) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body == nil {
		body = &bytes.Buffer{}
	}
	c.Request = httptest.NewRequest(method, path, body)
	c.Set("userID", uint(1))
	return w, c
}

func newMultipartUpload(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create form part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadResume_RejectsUnsupportedType(t *testing.T) {
	db := newTestDB(t)
	h := newCandidateTestHandler(t, db, newFakeStorage())

	body, contentType := newMultipartUpload(t, "a.png", "image/png", []byte("\x89PNG"))
	w, c := newTestContext(t, http.MethodPost, "/v1/candidates/upload", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.UploadResume(c)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUploadResume_RejectsMissingFile(t *testing.T) {
	db := newTestDB(t)
	h := newCandidateTestHandler(t, db, newFakeStorage())

	w, c := newTestContext(t, http.MethodPost, "/v1/candidates/upload", nil)

	h.UploadResume(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUploadResume_RejectsOversizedFile(t *testing.T) {
	db := newTestDB(t)
	h := NewCandidateHandler(db, newTestAsynqClient(t), newFakeStorage(), nil, "", 8)

	body, contentType := newMultipartUpload(t, "a.txt", "text/plain", []byte("this file is longer than eight bytes"))
	w, c := newTestContext(t, http.MethodPost, "/v1/candidates/upload", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.UploadResume(c)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetCandidate_ReturnsProfile(t *testing.T) {
	db := newTestDB(t)
	candidate := seedTestCandidate(t, db, "jane@example.com", []string{"Go", "SQL"})
	h := newCandidateTestHandler(t, db, newFakeStorage())

	w, c := newTestContext(t, http.MethodGet, "/v1/candidates/1", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(candidate.ID), 10)}}

	h.GetCandidate(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp candidateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "jane@example.com" {
		t.Fatalf("expected email jane@example.com, got %q", resp.Email)
	}
	if len(resp.Skills) != 2 || resp.Skills[0] != "Go" {
		t.Fatalf("unexpected skills: %v", resp.Skills)
	}
}

func TestGetCandidate_NotFound(t *testing.T) {
	db := newTestDB(t)
	h := newCandidateTestHandler(t, db, newFakeStorage())

	w, c := newTestContext(t, http.MethodGet, "/v1/candidates/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}

	h.GetCandidate(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateCandidate_OverwritesSkills(t *testing.T) {
	db := newTestDB(t)
	candidate := seedTestCandidate(t, db, "jane@example.com", []string{"Go"})
	h := newCandidateTestHandler(t, db, newFakeStorage())

	payload, _ := json.Marshal(map[string]any{"skills": []string{"Python", "Docker"}})
	w, c := newTestContext(t, http.MethodPut, "/v1/candidates/1", bytes.NewBuffer(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(candidate.ID), 10)}}

	h.UpdateCandidate(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded database.Candidate
	if err := db.First(&reloaded, candidate.ID).Error; err != nil {
		t.Fatalf("reload candidate: %v", err)
	}
	profile := reloaded.DecodeProfile()
	if len(profile.Skills) != 2 || profile.Skills[0] != "Python" {
		t.Fatalf("unexpected skills after update: %v", profile.Skills)
	}
}

func TestDeleteCandidate_RemovesMatchesAndObject(t *testing.T) {
	db := newTestDB(t)
	candidate := seedTestCandidate(t, db, "jane@example.com", []string{"Go"})
	job := database.Job{Title: "Role", Active: true}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := db.Create(&database.MatchScore{CandidateID: candidate.ID, JobID: job.ID, Score: 100}).Error; err != nil {
		t.Fatalf("seed match: %v", err)
	}

	store := newFakeStorage()
	h := newCandidateTestHandler(t, db, store)

	w, c := newTestContext(t, http.MethodDelete, "/v1/candidates/1", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(candidate.ID), 10)}}

	h.DeleteCandidate(c)

	// 直接调用 handler 时 c.Status 不会立即写回 recorder，断言要看 Writer。
	if c.Writer.Status() != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", c.Writer.Status(), w.Body.String())
	}

	var count int64
	if err := db.Model(&database.MatchScore{}).Where("candidate_id = ?", candidate.ID).Count(&count).Error; err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected match rows gone, found %d", count)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "resumes/test.pdf" {
		t.Fatalf("expected resume object deleted, got %v", store.deleted)
	}
}

func TestListMatches_SortedByScore(t *testing.T) {
	db := newTestDB(t)
	candidate := seedTestCandidate(t, db, "jane@example.com", []string{"Go"})

	jobLow := database.Job{Title: "Low", Active: true}
	jobHigh := database.Job{Title: "High", Active: true}
	if err := db.Create(&jobLow).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := db.Create(&jobHigh).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	seed := []database.MatchScore{
		{CandidateID: candidate.ID, JobID: jobLow.ID, Score: 33, Source: database.ParseSourceHeuristic},
		{CandidateID: candidate.ID, JobID: jobHigh.ID, Score: 67, Source: database.ParseSourceHeuristic},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed matches: %v", err)
	}

	h := newCandidateTestHandler(t, db, newFakeStorage())
	w, c := newTestContext(t, http.MethodGet, "/v1/candidates/1/matches", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(candidate.ID), 10)}}

	h.ListMatches(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []matchListItem `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].JobTitle != "High" || resp.Items[0].Score != 67 {
		t.Fatalf("expected High/67 first, got %+v", resp.Items[0])
	}
}

func TestGetResumeLink_Presigns(t *testing.T) {
	db := newTestDB(t)
	candidate := seedTestCandidate(t, db, "jane@example.com", []string{"Go"})

	store := newFakeStorage()
	store.presign["resumes/test.pdf"] = "https://signed.example/resumes/test.pdf"
	h := newCandidateTestHandler(t, db, store)

	w, c := newTestContext(t, http.MethodGet, "/v1/candidates/1/resume-link", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(candidate.ID), 10)}}

	h.GetResumeLink(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["url"] != "https://signed.example/resumes/test.pdf" {
		t.Fatalf("unexpected url: %q", resp["url"])
	}
}
