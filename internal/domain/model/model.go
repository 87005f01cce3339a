// Package model contains the mutable wire representation of the planning
// data. These are the shapes exchanged with storage; field names follow the
// camelCase JSON schema.
package model

import "time"

// Person is a member of a period's roster.
type Person struct {
	ID           string  `json:"id" yaml:"id"`
	DisplayName  string  `json:"displayName" yaml:"displayName"`
	Availability float64 `json:"availability" yaml:"availability"`
}

// Assignment commits part of a person's time to an objective.
type Assignment struct {
	PersonID   string  `json:"personId" yaml:"personId"`
	Commitment float64 `json:"commitment" yaml:"commitment"`
}

// ObjectiveGroup classifies an objective along one dimension, e.g. team=backend.
type ObjectiveGroup struct {
	GroupType string `json:"groupType" yaml:"groupType"`
	GroupName string `json:"groupName" yaml:"groupName"`
}

// ObjectiveTag is a free-form label.
type ObjectiveTag struct {
	Name string `json:"name" yaml:"name"`
}

// DisplayOptions holds per-objective rendering preferences.
type DisplayOptions struct {
	EnableMarkdown bool `json:"enableMarkdown" yaml:"enableMarkdown"`
}

// Objective is a unit of work with a resource estimate and assignments.
type Objective struct {
	Name             string           `json:"name" yaml:"name"`
	ResourceEstimate float64          `json:"resourceEstimate" yaml:"resourceEstimate"`
	CommitmentType   CommitmentType   `json:"commitmentType,omitempty" yaml:"commitmentType,omitempty"`
	Notes            string           `json:"notes" yaml:"notes"`
	Groups           []ObjectiveGroup `json:"groups" yaml:"groups"`
	Tags             []ObjectiveTag   `json:"tags" yaml:"tags"`
	Assignments      []Assignment     `json:"assignments" yaml:"assignments"`
	BlockID          string           `json:"blockID,omitempty" yaml:"blockID,omitempty"`
	DisplayOptions   *DisplayOptions  `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
}

// Bucket is a named allocation pool holding a priority-ordered list of objectives.
type Bucket struct {
	DisplayName          string         `json:"displayName" yaml:"displayName"`
	AllocationType       AllocationType `json:"allocationType" yaml:"allocationType"`
	AllocationPercentage float64        `json:"allocationPercentage" yaml:"allocationPercentage"`
	AllocationAbsolute   float64        `json:"allocationAbsolute" yaml:"allocationAbsolute"`
	Objectives           []Objective    `json:"objectives" yaml:"objectives"`
}

// SecondaryUnit is an alternate display unit for primary quantities.
type SecondaryUnit struct {
	Name             string  `json:"name" yaml:"name"`
	ConversionFactor float64 `json:"conversionFactor" yaml:"conversionFactor"`
}

// Period is the root aggregate of a planning cycle.
type Period struct {
	ID                     string          `json:"id" yaml:"id"`
	DisplayName            string          `json:"displayName" yaml:"displayName"`
	Unit                   string          `json:"unit" yaml:"unit"`
	SecondaryUnits         []SecondaryUnit `json:"secondaryUnits" yaml:"secondaryUnits"`
	NotesURL               string          `json:"notesURL" yaml:"notesURL"`
	MaxCommittedPercentage float64         `json:"maxCommittedPercentage" yaml:"maxCommittedPercentage"`
	Buckets                []Bucket        `json:"buckets" yaml:"buckets"`
	People                 []Person        `json:"people" yaml:"people"`
	// LastUpdateUUID is the optimistic concurrency token minted by storage.
	LastUpdateUUID string `json:"lastUpdateUUID" yaml:"lastUpdateUUID"`
}

// Principal identifies who a permission applies to.
type Principal struct {
	Type PrincipalType `json:"type" yaml:"type"`
	ID   string        `json:"id" yaml:"id"`
}

// Permission is an allow-list of principals.
type Permission struct {
	Allow []Principal `json:"allow" yaml:"allow"`
}

// TeamPermissions holds the read and write ACLs of a team.
type TeamPermissions struct {
	Read  Permission `json:"read" yaml:"read"`
	Write Permission `json:"write" yaml:"write"`
}

// Team owns a set of periods.
type Team struct {
	ID              string           `json:"id" yaml:"id"`
	DisplayName     string           `json:"displayName" yaml:"displayName"`
	TeamPermissions *TeamPermissions `json:"teamPermissions,omitempty" yaml:"teamPermissions,omitempty"`
}

// ObjectUpdateResponse is returned by storage after an insert or update.
type ObjectUpdateResponse struct {
	LastUpdateUUID string `json:"lastUpdateUUID" yaml:"lastUpdateUUID"`
}

// PeriodBackup is a copy of a period as it was before an update.
type PeriodBackup struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Period    Period    `json:"period" yaml:"period"`
}
