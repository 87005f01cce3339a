package model

// CommitmentType classifies how firmly an objective is promised.
// The zero value means unset and is treated as aspirational.
type CommitmentType string

const (
	CommitmentTypeUnset        CommitmentType = ""
	CommitmentTypeCommitted    CommitmentType = "committed"
	CommitmentTypeAspirational CommitmentType = "aspirational"
)

// Valid reports whether c is unset or one of the known values.
func (c CommitmentType) Valid() bool {
	switch c {
	case CommitmentTypeUnset, CommitmentTypeCommitted, CommitmentTypeAspirational:
		return true
	}
	return false
}

// AllocationType selects how a bucket's allocation is expressed.
type AllocationType string

const (
	AllocationTypePercentage AllocationType = "percentage"
	AllocationTypeAbsolute   AllocationType = "absolute"
)

// Valid reports whether a is a known allocation type.
func (a AllocationType) Valid() bool {
	return a == AllocationTypePercentage || a == AllocationTypeAbsolute
}

// PrincipalType selects how a principal id is matched.
type PrincipalType string

const (
	PrincipalTypeDomain PrincipalType = "domain"
	PrincipalTypeEmail  PrincipalType = "email"
)
