package match

import "testing"

func TestScore_EmptyCandidateSkills(t *testing.T) {
	got := Score(nil, []string{"Python"})
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0", got.Score)
	}
	if got.Explanation != "No candidate skills found" {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestScore_EmptyJobSkills(t *testing.T) {
	got := Score([]string{"Python"}, nil)
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0", got.Score)
	}
	if got.Explanation != "No job skills defined" {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestScore_BothEmpty(t *testing.T) {
	got := Score(nil, nil)
	if got.Score != 0 || got.Explanation != "No job skills defined" {
		t.Fatalf("got %+v", got)
	}
}

func TestScore_PartialMatchRounded(t *testing.T) {
	got := Score([]string{"JavaScript", "React", "SQL"}, []string{"React", "SQL", "Docker"})
	if got.Score != 67 {
		t.Fatalf("score = %d, want 67", got.Score)
	}
	if got.Explanation != "Strong in: React, SQL. Missing: Docker." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

// 双向子串包含刻意过度匹配；该回归测试固定这一已知行为。
func TestScore_BidirectionalContainmentOvermatches(t *testing.T) {
	got := Score([]string{"Java"}, []string{"JavaScript"})
	if got.Score != 100 {
		t.Fatalf("score = %d, want 100", got.Score)
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	got := Score([]string{"react"}, []string{"React.js"})
	if got.Score != 100 {
		t.Fatalf("score = %d, want 100", got.Score)
	}
}

func TestScore_FullMatch(t *testing.T) {
	got := Score([]string{"Go", "Redis"}, []string{"Go", "Redis"})
	if got.Score != 100 {
		t.Fatalf("score = %d, want 100", got.Score)
	}
	if got.Explanation != "Strong in: Go, Redis." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestScore_NoMatch(t *testing.T) {
	got := Score([]string{"Photoshop"}, []string{"Kubernetes"})
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0", got.Score)
	}
	if got.Explanation != "Missing: Kubernetes." {
		t.Fatalf("explanation = %q", got.Explanation)
	}
}

func TestExplain_TruncatesToThreePerSide(t *testing.T) {
	matched := []string{"A1", "B2", "C3", "D4"}
	missing := []string{"E5", "F6", "G7", "H8"}
	got := explain(matched, missing)
	want := "Strong in: A1, B2, C3. Missing: E5, F6, G7."
	if got != want {
		t.Fatalf("explanation = %q, want %q", got, want)
	}
}
