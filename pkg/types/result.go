package types

import "time"

// DiagnosticResult is one ranked candidate issue.
type DiagnosticResult struct {
	Rank            int        `json:"rank"`
	RuleID          string     `json:"ruleId"`
	Issue           string     `json:"issue"`
	Description     string     `json:"description"`
	Solution        string     `json:"solution,omitempty"`
	Severity        Severity   `json:"severity"`
	EstimatedCost   *CostRange `json:"estimatedCost,omitempty"`
	MatchScore      float64    `json:"matchScore"`
	MatchedSymptoms []Symptom  `json:"matchedSymptoms"`
}

// DiagnosisReport wraps the ranked results of one diagnose request.
type DiagnosisReport struct {
	ID                   string             `json:"id"`
	Vehicle              Vehicle            `json:"vehicle"`
	Symptoms             []Observation      `json:"symptoms"`
	Results              []DiagnosticResult `json:"results"`
	GeneratedAt          time.Time          `json:"generatedAt"`
	Engine               string             `json:"engine"` // "rule-based"
	KnowledgeBaseVersion string             `json:"knowledgeBaseVersion,omitempty"`
}
