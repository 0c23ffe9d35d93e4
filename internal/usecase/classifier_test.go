package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Tell me about your Python skills", "technical"},
		{"Do you know Golang?", "technical"},
		{"What companies have you worked at?", "experience"},
		{"Describe a side project you built", "projects"},
		{"Tell me about a time you had a conflict in your team", "behavioral"},
		{"What are your salary expectations?", "hr"},
		{"Which university did you study at?", "education"},
		{"Hello there!", DefaultCategory},
		{"", DefaultCategory},
		{"   ???   ", DefaultCategory},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestClassifyIgnoresTheVerbGo(t *testing.T) {
	assert.Equal(t, "education", Classify("Where did you go to college?"))
	assert.Equal(t, DefaultCategory, Classify("Shall we go?"))
}

func TestClassifyMatchesWholeWords(t *testing.T) {
	// Keywords only match whole words.
	assert.Equal(t, DefaultCategory, Classify("How is it going?"))
}
