package models

import "time"

// Organization groups contestants for resolver/team payloads.
type Organization struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:128;not null" json:"name"`
	ShortName string `gorm:"size:64" json:"short_name"`
}

// DisplayName prefers the short name when one is set.
func (o Organization) DisplayName() string {
	if o.ShortName != "" {
		return o.ShortName
	}

	return o.Name
}

// User is a contestant account.
type User struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Username       string        `gorm:"size:64;uniqueIndex;not null" json:"username"`
	FullName       string        `gorm:"size:128" json:"full_name"`
	OrganizationID *uint         `json:"organization_id"`
	Organization   *Organization `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"organization"`
	CreatedAt      time.Time     `json:"created_at"`
}

// DisplayName falls back to the username when no full name is recorded.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}

	return u.Username
}
