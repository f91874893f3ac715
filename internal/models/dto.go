package models

import "time"

// Data Transfer Objects

type CheckResponse struct {
	CheckID    string          `json:"check_id"`
	Mode       string          `json:"mode"`
	Result     *CheckResult    `json:"result"`
	Level      PlagiarismLevel `json:"level"`
	LevelLabel string          `json:"level_label"`
	CheckedAt  time.Time       `json:"checked_at"`
}

type ReportExport struct {
	CheckID     string          `json:"check_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Level       PlagiarismLevel `json:"level"`
	Result      *CheckResult    `json:"result"`
}
