package config

import (
	"fmt"
	"os"
	"strings"

	"twin-core/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Profile is the curated dataset the twin speaks for.
type Profile struct {
	Name       string       `yaml:"name"`
	Title      string       `yaml:"title"`
	Summary    string       `yaml:"summary"`
	Location   string       `yaml:"location"`
	Email      string       `yaml:"email"`
	Skills     []SkillGroup `yaml:"skills"`
	Experience []Experience `yaml:"experience"`
	Projects   []Project    `yaml:"projects"`
	Education  []Education  `yaml:"education"`
	FAQ        []FAQ        `yaml:"faq"`
}

type SkillGroup struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

type Experience struct {
	Company    string   `yaml:"company"`
	Role       string   `yaml:"role"`
	Period     string   `yaml:"period"`
	Highlights []string `yaml:"highlights"`
}

type Project struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tech        []string `yaml:"tech"`
	URL         string   `yaml:"url"`
}

type Education struct {
	Institution string `yaml:"institution"`
	Degree      string `yaml:"degree"`
	Year        string `yaml:"year"`
}

type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// LoadProfile reads a YAML profile and expands environment variables.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ConfigError{Field: "profile.name", Reason: "must be set"}
	}
	for i, e := range p.Experience {
		if e.Company == "" {
			return &ConfigError{Field: fmt.Sprintf("profile.experience[%d].company", i), Reason: "must be set"}
		}
	}
	for i, f := range p.FAQ {
		if f.Question == "" || f.Answer == "" {
			return &ConfigError{Field: fmt.Sprintf("profile.faq[%d]", i), Reason: "needs both question and answer"}
		}
	}
	return nil
}

// Snippets flattens the profile into retrievable text, one snippet per fact group.
func (p *Profile) Snippets() []entity.Snippet {
	var out []entity.Snippet
	add := func(source, content string) {
		if content = strings.TrimSpace(content); content != "" {
			out = append(out, entity.Snippet{Source: source, Content: content})
		}
	}

	add("summary", p.Summary)
	for _, g := range p.Skills {
		add("skills:"+g.Category, fmt.Sprintf("%s skills: %s", g.Category, strings.Join(g.Items, ", ")))
	}
	for _, e := range p.Experience {
		text := fmt.Sprintf("%s at %s", e.Role, e.Company)
		if e.Period != "" {
			text += " (" + e.Period + ")"
		}
		if len(e.Highlights) > 0 {
			text += ": " + strings.Join(e.Highlights, "; ")
		}
		add("experience:"+e.Company, text)
	}
	for _, pr := range p.Projects {
		text := pr.Name + ": " + pr.Description
		if len(pr.Tech) > 0 {
			text += " Built with " + strings.Join(pr.Tech, ", ") + "."
		}
		add("project:"+pr.Name, text)
	}
	for _, ed := range p.Education {
		add("education", strings.TrimSpace(fmt.Sprintf("%s, %s %s", ed.Degree, ed.Institution, ed.Year)))
	}
	for _, f := range p.FAQ {
		add("faq", "Q: "+f.Question+"\nA: "+f.Answer)
	}
	return out
}
