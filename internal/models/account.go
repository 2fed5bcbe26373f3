package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type Account struct {
	gorm.Model
	DiscordID string `gorm:"uniqueIndex"`
	Username  string
	Email     string
	Avatar    string
	Role      Role
}

type APIKey struct {
	gorm.Model
	AccountID  uint       `json:"account_id" gorm:"constraint:OnDelete:CASCADE"`
	Account    Account    `json:"account"`
	Key        string     `json:"key" gorm:"uniqueIndex"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}
