// Package ai 封装外部生成式模型调用。客户端显式构造、按需注入，
// 不存在包级单例；启发式回退路径（extract/match）完全不依赖本包的网络调用。
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"talentTrack/internal/extract"
	"talentTrack/internal/match"
)

// Client 持有一个 Gemini 客户端句柄。
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// ErrUnusableResponse 表示模型返回了无法解析或不完整的内容。
var ErrUnusableResponse = errors.New("model response unusable")

// NewClient 构造 Gemini 客户端。
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}

	return &Client{
		genai:   client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return result.Text(), nil
}

// ParseResume 让模型把简历文本解析成结构化候选人信息。
// 模型输出经常裹在 ```json 代码栅栏里，先清理再解析。
func (c *Client) ParseResume(ctx context.Context, text string) (extract.Candidate, error) {
	raw, err := c.generate(ctx, parsePrompt(text))
	if err != nil {
		return extract.Candidate{}, err
	}

	cleaned := cleanJSON(raw)
	if !gjson.Valid(cleaned) {
		c.logger.Warn("model returned malformed json", slog.Int("response_len", len(raw)))
		return extract.Candidate{}, fmt.Errorf("%w: malformed json", ErrUnusableResponse)
	}

	candidate := extract.Candidate{
		Name:       gjson.Get(cleaned, "name").String(),
		Email:      gjson.Get(cleaned, "email").String(),
		Phone:      gjson.Get(cleaned, "phone").String(),
		Skills:     []string{},
		Experience: []extract.Experience{},
		Education:  []extract.Education{},
	}
	for _, s := range gjson.Get(cleaned, "skills").Array() {
		if skill := s.String(); skill != "" {
			candidate.Skills = append(candidate.Skills, skill)
		}
	}
	for _, e := range gjson.Get(cleaned, "experience").Array() {
		candidate.Experience = append(candidate.Experience, extract.Experience{
			JobTitle:    e.Get("job_title").String(),
			Company:     e.Get("company").String(),
			Duration:    e.Get("duration").String(),
			Description: e.Get("description").String(),
		})
	}
	for _, e := range gjson.Get(cleaned, "education").Array() {
		candidate.Education = append(candidate.Education, extract.Education{
			Degree:      e.Get("degree").String(),
			Institution: e.Get("institution").String(),
			Year:        e.Get("year").String(),
		})
	}

	if candidate.Email == "" && len(candidate.Skills) == 0 {
		return extract.Candidate{}, fmt.Errorf("%w: neither email nor skills recovered", ErrUnusableResponse)
	}
	return candidate, nil
}

// ScoreMatch 让模型对候选人技能与职位要求打 0–100 分并给出一句解释。
func (c *Client) ScoreMatch(ctx context.Context, candidateSkills, jobSkills []string) (match.Result, error) {
	raw, err := c.generate(ctx, scorePrompt(candidateSkills, jobSkills))
	if err != nil {
		return match.Result{}, err
	}

	cleaned := cleanJSON(raw)
	if !gjson.Valid(cleaned) {
		return match.Result{}, fmt.Errorf("%w: malformed json", ErrUnusableResponse)
	}

	score := gjson.Get(cleaned, "score")
	if !score.Exists() {
		return match.Result{}, fmt.Errorf("%w: score field missing", ErrUnusableResponse)
	}

	value := int(score.Int())
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return match.Result{
		Score:       value,
		Explanation: gjson.Get(cleaned, "explanation").String(),
	}, nil
}
