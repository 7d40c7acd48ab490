package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Difficulty of a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ProblemCategory groups problems in the catalog.
type ProblemCategory string

const (
	CategoryAlgorithms     ProblemCategory = "algorithms"
	CategoryDataStructures ProblemCategory = "data-structures"
	CategoryDatabases      ProblemCategory = "databases"
	CategorySystemDesign   ProblemCategory = "system-design"
	CategoryFrontend       ProblemCategory = "frontend"
	CategoryBackend        ProblemCategory = "backend"
)

// TestCase is one sample input/output pair of a problem.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Explanation    string `json:"explanation,omitempty"`
}

// Problem is a catalog entry. StarterCode and TestCases are stored as JSON
// text columns; use the accessors below rather than touching the raw fields.
type Problem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"size:191;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Difficulty  Difficulty      `gorm:"size:10;index:idx_diff_cat;not null" json:"difficulty"`
	Category    ProblemCategory `gorm:"size:30;index:idx_diff_cat;not null" json:"category"`
	Tags        string          `gorm:"size:255" json:"tags"` // comma-separated
	StarterCode string          `gorm:"type:text" json:"-"`   // JSON: language -> snippet
	TestCases   string          `gorm:"type:text" json:"-"`   // JSON: []TestCase
	AuthorID    uint            `gorm:"index;not null" json:"authorId"`
	IsPublic    bool            `gorm:"index;default:true" json:"isPublic"`
	Attempts    int64           `gorm:"default:0" json:"attempts"`
	Solved      int64           `gorm:"default:0" json:"solved"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// SetStarterCode serializes the language->snippet map into the JSON column.
func (p *Problem) SetStarterCode(code map[string]string) error {
	if len(code) == 0 {
		p.StarterCode = ""
		return nil
	}
	raw, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal starter code: %w", err)
	}
	p.StarterCode = string(raw)
	return nil
}

// ParseStarterCode deserializes the starter-code column.
func (p *Problem) ParseStarterCode() (map[string]string, error) {
	if p.StarterCode == "" {
		return nil, nil
	}
	var code map[string]string
	if err := json.Unmarshal([]byte(p.StarterCode), &code); err != nil {
		return nil, fmt.Errorf("unmarshal starter code: %w", err)
	}
	return code, nil
}

// SetTestCases serializes the test cases into the JSON column.
func (p *Problem) SetTestCases(cases []TestCase) error {
	if len(cases) == 0 {
		p.TestCases = ""
		return nil
	}
	raw, err := json.Marshal(cases)
	if err != nil {
		return fmt.Errorf("marshal test cases: %w", err)
	}
	p.TestCases = string(raw)
	return nil
}

// ParseTestCases deserializes the test-case column.
func (p *Problem) ParseTestCases() ([]TestCase, error) {
	if p.TestCases == "" {
		return nil, nil
	}
	var cases []TestCase
	if err := json.Unmarshal([]byte(p.TestCases), &cases); err != nil {
		return nil, fmt.Errorf("unmarshal test cases: %w", err)
	}
	return cases, nil
}
