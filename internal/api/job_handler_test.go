package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"talentTrack/internal/database"
)

func TestCreateJob_PersistsSkills(t *testing.T) {
	db := newTestDB(t)
	h := NewJobHandler(db, newTestAsynqClient(t), nil)

	payload, _ := json.Marshal(map[string]any{
		"title":  "Backend Engineer",
		"skills": []string{"Go", " SQL ", ""},
	})
	w, c := newTestContext(t, http.MethodPost, "/v1/jobs", bytes.NewBuffer(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateJob(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp jobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Active {
		t.Fatalf("new job should default to active")
	}
	if len(resp.Skills) != 2 || resp.Skills[1] != "SQL" {
		t.Fatalf("expected trimmed skills [Go SQL], got %v", resp.Skills)
	}
}

func TestCreateJob_HonorsInactiveFlag(t *testing.T) {
	db := newTestDB(t)
	h := NewJobHandler(db, newTestAsynqClient(t), nil)

	payload, _ := json.Marshal(map[string]any{
		"title":  "Draft Role",
		"skills": []string{"Go"},
		"active": false,
	})
	w, c := newTestContext(t, http.MethodPost, "/v1/jobs", bytes.NewBuffer(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateJob(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded database.Job
	if err := db.Order("id desc").First(&reloaded).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Active {
		t.Fatalf("job created with active=false was stored as active=true")
	}

	var activeCount int64
	if err := db.Model(&database.Job{}).Where("active = ?", true).Count(&activeCount).Error; err != nil {
		t.Fatalf("count active jobs: %v", err)
	}
	if activeCount != 0 {
		t.Fatalf("inactive job leaked into the active set, count=%d", activeCount)
	}
}

func TestCreateJob_RequiresSkills(t *testing.T) {
	db := newTestDB(t)
	h := NewJobHandler(db, newTestAsynqClient(t), nil)

	payload, _ := json.Marshal(map[string]any{"title": "No Skills"})
	w, c := newTestContext(t, http.MethodPost, "/v1/jobs", bytes.NewBuffer(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateJob(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestListJobs_FiltersByActive(t *testing.T) {
	db := newTestDB(t)
	h := NewJobHandler(db, newTestAsynqClient(t), nil)

	active := database.Job{Title: "Active", Active: true}
	inactive := database.Job{Title: "Inactive", Active: false}
	if err := db.Create(&active).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	w, c := newTestContext(t, http.MethodGet, "/v1/jobs?active=true", nil)

	h.ListJobs(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Items []jobResponse `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Active" {
		t.Fatalf("expected only the active job, got %+v", resp.Items)
	}
}

func TestUpdateJob_Overwrites(t *testing.T) {
	db := newTestDB(t)
	h := NewJobHandler(db, newTestAsynqClient(t), nil)

	job := database.Job{Title: "Old Title", Active: true}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	inactive := false
	payload, _ := json.Marshal(map[string]any{
		"title":  "New Title",
		"skills": []string{"Kubernetes"},
		"active": inactive,
	})
	w, c := newTestContext(t, http.MethodPut, "/v1/jobs/1", bytes.NewBuffer(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(job.ID), 10)}}

	h.UpdateJob(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded database.Job
	if err := db.First(&reloaded, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Title != "New Title" || reloaded.Active {
		t.Fatalf("unexpected job after update: title=%q active=%v", reloaded.Title, reloaded.Active)
	}
	if skills := reloaded.SkillList(); len(skills) != 1 || skills[0] != "Kubernetes" {
		t.Fatalf("unexpected skills: %v", skills)
	}
}

func TestDeleteJob_PrunesMatches(t *testing.T) {
	db := newTestDB(t)
	h := NewJobHandler(db, newTestAsynqClient(t), nil)

	job := database.Job{Title: "Doomed", Active: true}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	candidate := seedTestCandidate(t, db, "jane@example.com", []string{"Go"})
	if err := db.Create(&database.MatchScore{CandidateID: candidate.ID, JobID: job.ID, Score: 50}).Error; err != nil {
		t.Fatalf("seed match: %v", err)
	}

	w, c := newTestContext(t, http.MethodDelete, "/v1/jobs/1", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(job.ID), 10)}}

	h.DeleteJob(c)

	// 直接调用 handler 时 c.Status 不会立即写回 recorder，断言要看 Writer。
	if c.Writer.Status() != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", c.Writer.Status(), w.Body.String())
	}

	var jobCount, matchCount int64
	if err := db.Model(&database.Job{}).Count(&jobCount).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if err := db.Model(&database.MatchScore{}).Where("job_id = ?", job.ID).Count(&matchCount).Error; err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if jobCount != 0 || matchCount != 0 {
		t.Fatalf("expected job and matches gone, jobs=%d matches=%d", jobCount, matchCount)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	db := newTestDB(t)
	h := NewJobHandler(db, newTestAsynqClient(t), nil)

	w, c := newTestContext(t, http.MethodGet, "/v1/jobs/42", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.GetJob(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
