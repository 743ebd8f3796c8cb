package ai

import (
	"context"
	"reflect"
	"testing"
)

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := cleanJSON(tc.in); got != tc.want {
			t.Fatalf("cleanJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// 没有配置模型客户端时必须无条件走启发式路径。
func TestParseWithFallback_NilClient(t *testing.T) {
	text := "John Doe\njohn@example.com\n\nSKILLS\n• Go\n• Redis\n\nEXPERIENCE\n"
	outcome := ParseWithFallback(context.Background(), nil, text)
	if outcome.Source != SourceHeuristic {
		t.Fatalf("source = %q, want heuristic", outcome.Source)
	}
	if outcome.Profile.Name != "John Doe" {
		t.Fatalf("name = %q", outcome.Profile.Name)
	}
	if !reflect.DeepEqual(outcome.Profile.Skills, []string{"Go", "Redis"}) {
		t.Fatalf("skills = %v", outcome.Profile.Skills)
	}
}

func TestScoreWithFallback_NilClient(t *testing.T) {
	outcome := ScoreWithFallback(context.Background(), nil, []string{"Go"}, []string{"Go", "Rust"})
	if outcome.Source != SourceHeuristic {
		t.Fatalf("source = %q, want heuristic", outcome.Source)
	}
	if outcome.Result.Score != 50 {
		t.Fatalf("score = %d, want 50", outcome.Result.Score)
	}
}
