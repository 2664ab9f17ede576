package stringutil

import "testing"

func TestNormalizeWidth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Fullwidth question mark", "他的h指数是多少？", "他的h指数是多少?"},
		{"Fullwidth latin", "ＮＬＰ", "NLP"},
		{"Surrounding spaces", "  谁研究了机器学习  ", "谁研究了机器学习"},
		{"Already narrow", "cooperation?", "cooperation?"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeWidth(tt.input); got != tt.want {
				t.Errorf("NormalizeWidth(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestContainsEitherFold(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"Forward", "Natural Language Generation", "language", true},
		{"Backward", "NLP", "Modern NLP systems", true},
		{"Case folded", "machine learning", "Machine Learning", true},
		{"Disjoint", "Computer Vision", "Robotics", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsEitherFold(tt.a, tt.b); got != tt.want {
				t.Errorf("ContainsEitherFold(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
