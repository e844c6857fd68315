package models

import "time"

// Problem is a judged task that can be attached to contests.
type Problem struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Code             string     `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name             string     `gorm:"size:128;not null" json:"name"`
	TimeLimit        float64    `gorm:"not null;default:1" json:"time_limit"`
	AllowedLanguages []Language `gorm:"many2many:problem_languages" json:"allowed_languages"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ContestProblem places a problem into a contest with its point value.
type ContestProblem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ContestID uint    `gorm:"not null;index" json:"contest_id"`
	ProblemID uint    `gorm:"not null" json:"problem_id"`
	Order     int     `gorm:"not null;default:0" json:"order"`
	Points    float64 `gorm:"not null;default:100" json:"points"`
	Problem   Problem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problem"`
}

// Language identifies a submission language exposed on the resolver feed.
type Language struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Key       string `gorm:"size:32;uniqueIndex;not null" json:"key"`
	Name      string `gorm:"size:64;not null" json:"name"`
	Extension string `gorm:"size:16" json:"extension"`
}
