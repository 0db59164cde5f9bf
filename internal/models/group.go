package models

import "time"

// Group is a named collection of agents owned by exactly one identity (the
// signup that provisioned it). Rows are created at provisioning time and only
// ever read by this service.
type Group struct {
	ID        string    `json:"id" db:"id"`
	GroupName string    `json:"group_name" db:"group_name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GroupMembership links a group to a member agent. Sourced from the
// agent-management platform; read-only here.
type GroupMembership struct {
	GroupName string `json:"group_name" db:"group_name"`
	AgentID   string `json:"agent_id" db:"agent_id"`
}
