package models

import "time"

// PrizeAmount is the fixed prize, in whole dollars, awarded to every weekly winner.
const PrizeAmount = 300

// Contestant represents a person entered into a week's raffle.
// Identity is structural; duplicate entries are distinct, equally likely tickets.
type Contestant struct {
	Name       string `json:"name"`
	Supervisor string `json:"supervisor"`
	Department string `json:"department"`
}

// Winner is a contestant who won a specific week's draw.
// Created once by draw confirmation; immutable afterwards except for deletion.
type Winner struct {
	Name        string `json:"name"`
	Supervisor  string `json:"supervisor"`
	Department  string `json:"department"`
	Week        int    `json:"week"`
	PrizeAmount int    `json:"prizeAmount"`
}

// WeekStatus classifies a raffle week on the dashboard.
type WeekStatus string

const (
	StatusCompleted  WeekStatus = "completed"
	StatusActive     WeekStatus = "active"
	StatusComingSoon WeekStatus = "coming_soon"
)

// WeekRecord is the derived view of one raffle week. It is recomputed from the
// winner ledger, the draw-date configuration and the contestant pools; it is
// never stored.
type WeekRecord struct {
	Week        int          `json:"week"`
	Status      WeekStatus   `json:"status"`
	DrawDate    *time.Time   `json:"drawDate,omitempty"`
	Contestants []Contestant `json:"contestants"`
	Winner      *Winner      `json:"winner,omitempty"`
	CanDraw     bool         `json:"canDraw"`
}

// WeekConfig is one row of the remote draw-date table.
type WeekConfig struct {
	Week      int       `json:"week"`
	DrawDate  time.Time `json:"drawDate"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}
