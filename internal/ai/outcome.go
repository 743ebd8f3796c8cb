package ai

import (
	"context"

	"talentTrack/internal/extract"
	"talentTrack/internal/match"
)

// Source 标记一份数据来自外部模型还是启发式回退，调用方据此区分两条路径。
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// ParseOutcome 是一次简历解析的带来源标记的结果。
type ParseOutcome struct {
	Profile extract.Candidate
	Source  Source
}

// ScoreOutcome 是一次匹配打分的带来源标记的结果。
type ScoreOutcome struct {
	Result match.Result
	Source Source
}

// ParseWithFallback 优先走模型解析，客户端缺失或模型失败/返回不完整时
// 退回 extract 包的确定性启发式。本函数绝不失败。
func ParseWithFallback(ctx context.Context, client *Client, text string) ParseOutcome {
	if client != nil {
		if profile, err := client.ParseResume(ctx, text); err == nil {
			return ParseOutcome{Profile: profile, Source: SourceModel}
		} else {
			client.logger.Warn("model parse failed, falling back to heuristic", "error", err)
		}
	}
	return ParseOutcome{Profile: extract.Extract(text), Source: SourceHeuristic}
}

// ScoreWithFallback 优先走模型打分，失败时退回 match 包的技能重合度打分。
func ScoreWithFallback(ctx context.Context, client *Client, candidateSkills, jobSkills []string) ScoreOutcome {
	if client != nil {
		if result, err := client.ScoreMatch(ctx, candidateSkills, jobSkills); err == nil {
			return ScoreOutcome{Result: result, Source: SourceModel}
		} else {
			client.logger.Warn("model score failed, falling back to heuristic", "error", err)
		}
	}
	return ScoreOutcome{Result: match.Score(candidateSkills, jobSkills), Source: SourceHeuristic}
}
