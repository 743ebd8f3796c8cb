package worker

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"talentTrack/internal/ai"
	"talentTrack/internal/database"
)

// errVersionConflict 表示候选人的 match_version 在打分期间被其他写入者推进了。
// 该候选人这一轮跳过，等下一轮重算收敛。
var errVersionConflict = errors.New("candidate match version conflict")

// scoreCandidateAgainstJobs 为一名候选人计算对全部职位的匹配行。
func scoreCandidateAgainstJobs(ctx context.Context, aiClient *ai.Client, candidate *database.Candidate, jobs []database.Job) []database.MatchScore {
	profile := candidate.DecodeProfile()
	rows := make([]database.MatchScore, 0, len(jobs))
	for _, job := range jobs {
		outcome := ai.ScoreWithFallback(ctx, aiClient, profile.Skills, job.SkillList())
		rows = append(rows, database.MatchScore{
			CandidateID: candidate.ID,
			JobID:       job.ID,
			Score:       outcome.Result.Score,
			Explanation: outcome.Result.Explanation,
			Source:      string(outcome.Source),
		})
	}
	return rows
}

// replaceMatches 在单个事务里整组替换候选人的匹配行。
// 先用 match_version 做乐观锁推进；版本不一致返回 errVersionConflict。
// 文档级原子性仅覆盖单个候选人，不提供跨候选人的事务保证。
func replaceMatches(ctx context.Context, db *gorm.DB, candidate *database.Candidate, rows []database.MatchScore) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&database.Candidate{}).
			Where("id = ? AND match_version = ?", candidate.ID, candidate.MatchVersion).
			Update("match_version", gorm.Expr("match_version + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		if err := tx.Unscoped().
			Where("candidate_id = ?", candidate.ID).
			Delete(&database.MatchScore{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}
