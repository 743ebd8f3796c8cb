package extract

import (
	"reflect"
	"testing"
)

const sampleResume = "John Doe\njohn.doe@example.com\n+1 (555) 123-4567\n\nSKILLS\n• Python\n• Go\n\nEXPERIENCE\n- Senior Engineer\n"

func TestExtractSkills_SectionBounded(t *testing.T) {
	got := ExtractSkills(sampleResume)
	want := []string{"Python", "Go"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("skills = %v, want %v", got, want)
	}
}

func TestExtractSkills_Idempotent(t *testing.T) {
	first := ExtractSkills(sampleResume)
	second := ExtractSkills(sampleResume)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not deterministic: %v vs %v", first, second)
	}
	for _, s := range first {
		if len([]rune(s)) < 2 {
			t.Fatalf("skill %q shorter than 2 characters", s)
		}
	}
}

func TestExtractSkills_NoExactDuplicates(t *testing.T) {
	text := "SKILLS\n• Python, Python; Go\n• Go\nEXPERIENCE\n"
	got := ExtractSkills(text)
	seen := map[string]int{}
	for _, s := range got {
		seen[s]++
		if seen[s] > 1 {
			t.Fatalf("duplicate entry %q in %v", s, got)
		}
	}
}

// 大小写不同的同名技能是有意保留的回退行为，不做归一化。
func TestExtractSkills_CaseVariantsSurvive(t *testing.T) {
	text := "SKILLS\n• React\n• react\nEXPERIENCE\n"
	got := ExtractSkills(text)
	want := []string{"React", "react"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("skills = %v, want both case variants %v", got, want)
	}
}

func TestExtractSkills_ListFormats(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "comma list",
			text: "Skills:\nJavaScript, TypeScript; SQL\nEducation\n",
			want: []string{"JavaScript", "TypeScript", "SQL"},
		},
		{
			name: "numbered list",
			text: "TECHNICAL SKILLS\n1. Docker\n2. Kubernetes\nPROJECTS\n",
			want: []string{"Docker", "Kubernetes"},
		},
		{
			name: "dash markers normalized to bullets",
			text: "Core Competencies\n- Terraform\n- Ansible\nCertifications\n",
			want: []string{"Terraform", "Ansible"},
		},
		{
			name: "asterisk markers",
			text: "Technologies\n* GraphQL\n* Redis\nExperience\n",
			want: []string{"GraphQL", "Redis"},
		},
		{
			name: "pipe and slash split under bullet",
			text: "SKILLS\n• HTML/CSS|SQL\nEXPERIENCE\n",
			want: []string{"HTML", "CSS", "SQL"},
		},
		{
			name: "bare line without colon",
			text: "SKILLS\nDistributed Systems\nEXPERIENCE\n",
			want: []string{"Distributed Systems"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractSkills(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("skills = %v, want %v", got, tc.want)
			}
		})
	}
}

// 带冒号且没有逗号的行按标签整体丢弃，这是已知的回退质量限制。
func TestExtractSkills_ColonLabelLineDropped(t *testing.T) {
	text := "SKILLS\nLanguages: Python Go\nEXPERIENCE\n"
	if got := ExtractSkills(text); len(got) != 0 {
		t.Fatalf("colon label line should be dropped, got %v", got)
	}
}

func TestExtractSkills_VocabularyFallback(t *testing.T) {
	text := "Jane Roe\nSeasoned engineer working with Python and Docker on Linux hosts.\n"
	got := ExtractSkills(text)
	want := []string{"Python", "Docker", "Linux"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("vocabulary fallback = %v, want %v", got, want)
	}
}

func TestExtractSkills_ShortFragmentsDiscarded(t *testing.T) {
	text := "SKILLS\n• Go, R, (C)\nEXPERIENCE\n"
	got := ExtractSkills(text)
	want := []string{"Go"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("skills = %v, want %v", got, want)
	}
}

func TestExtractName(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"first line is name", "John Doe\njohn@example.com\n", "John Doe"},
		{"resume heading skipped", "Resume\nJane Roe\n", "Jane Roe"},
		{"curriculum vitae skipped", "Curriculum Vitae\nJane Roe\n", "Jane Roe"},
		{"phone line skipped", "+1 555 123 4567\nJane Roe\n", "Jane Roe"},
		{"no qualifying line", "a\n1 Main St\nx@y.io\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractName(tc.text, nameScanDocument); got != tc.want {
				t.Fatalf("name = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractEmail(t *testing.T) {
	if got := ExtractEmail("reach me at john.doe+tag@mail.example.co"); got != "john.doe+tag@mail.example.co" {
		t.Fatalf("email = %q", got)
	}
	if got := ExtractEmail("no contact here"); got != "" {
		t.Fatalf("expected empty email, got %q", got)
	}
}

func TestExtractPhone(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"call (555) 123-4567 today", "(555) 123-4567"},
		{"call 555-123-4567 today", "555-123-4567"},
		{"call +44 7911 123 456 today", "+44 7911 123 456"},
		{"no number", ""},
	}
	for _, tc := range cases {
		if got := ExtractPhone(tc.text); got != tc.want {
			t.Fatalf("phone(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtract_FullDocument(t *testing.T) {
	got := Extract(sampleResume)
	if got.Name != "John Doe" {
		t.Fatalf("name = %q", got.Name)
	}
	if got.Email != "john.doe@example.com" {
		t.Fatalf("email = %q", got.Email)
	}
	if got.Phone == "" {
		t.Fatalf("expected phone to be extracted")
	}
	if !reflect.DeepEqual(got.Skills, []string{"Python", "Go"}) {
		t.Fatalf("skills = %v", got.Skills)
	}
}

func TestExtract_NeverNilOnGarbage(t *testing.T) {
	for _, text := range []string{"", "\n\n\n", "::::", "1234567"} {
		got := Extract(text)
		if got.Experience == nil || got.Education == nil {
			t.Fatalf("expected empty slices for %q", text)
		}
		for _, s := range got.Skills {
			if s == "" {
				t.Fatalf("empty skill entry for %q", text)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	in := "SKILLS\n◦  Python\n-  Go\n*  Rust\n3.   Java\n\n\n\nEND"
	got := Normalize(in)
	want := "SKILLS\n• Python\n• Go\n• Rust\n3. Java\n\nEND"
	if got != want {
		t.Fatalf("normalize = %q, want %q", got, want)
	}
}
