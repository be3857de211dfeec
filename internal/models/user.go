package models

import "time"

type Role string

const (
	RoleQC             Role = "QC"
	RoleEditor         Role = "Editor"
	RoleProjectManager Role = "Project Manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleQC, RoleEditor, RoleProjectManager:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
