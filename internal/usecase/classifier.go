package usecase

import (
	"strings"
	"unicode"
)

const DefaultCategory = "general"

type categoryKeywords struct {
	name     string
	keywords []string
}

// Declaration order breaks ties between categories with equal scores.
var categories = []categoryKeywords{
	{"technical", []string{
		"python", "golang", "java", "javascript", "typescript", "rust", "sql", "code", "coding",
		"programming", "stack", "architecture", "database", "api", "cloud", "aws", "gcp", "kubernetes",
		"docker", "framework", "algorithm", "backend", "frontend", "skills", "technologies", "testing",
		"system design", "microservices",
	}},
	{"experience", []string{
		"experience", "worked", "work history", "role", "roles", "company", "companies", "job", "career",
		"previous", "responsibilities", "years", "background",
	}},
	{"projects", []string{
		"project", "projects", "built", "portfolio", "side project", "open source", "github", "shipped",
	}},
	{"behavioral", []string{
		"conflict", "team", "teamwork", "challenge", "challenging", "failure", "mistake", "weakness",
		"weaknesses", "strength", "strengths", "leadership", "pressure", "deadline", "tell me about a time",
		"disagree", "feedback", "motivate",
	}},
	{"hr", []string{
		"salary", "compensation", "relocate", "relocation", "notice period", "availability", "available",
		"visa", "remote", "hybrid", "start date", "why do you want", "hire you", "five years", "expectations",
	}},
	{"education", []string{
		"degree", "university", "college", "study", "studied", "education", "course", "certification",
		"certifications", "graduate", "bootcamp",
	}},
}

// Classify assigns a coarse interview category by keyword hits. Ambiguous or unmatched
// text falls back to DefaultCategory.
func Classify(query string) string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return DefaultCategory
	}
	padded := " " + strings.Join(words, " ") + " "

	best, bestScore := DefaultCategory, 0
	for _, c := range categories {
		score := 0
		for _, kw := range c.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c.name, score
		}
	}
	return best
}
