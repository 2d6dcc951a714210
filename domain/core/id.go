package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID      ID
	TaskID     ID
	TemplateID ID
	ProviderID ID
	AgentID    ID
	RecordID   ID
)

// String conversions for domain IDs
func (id RunID) String() string      { return ID(id).String() }
func (id TaskID) String() string     { return ID(id).String() }
func (id TemplateID) String() string { return ID(id).String() }
func (id ProviderID) String() string { return ID(id).String() }
func (id AgentID) String() string    { return ID(id).String() }
func (id RecordID) String() string   { return ID(id).String() }

// ParseTaskID parses a string into TaskID
func ParseTaskID(s string) (TaskID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("task ID cannot be empty")
	}
	return TaskID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseProviderID parses a string into ProviderID
func ParseProviderID(s string) (ProviderID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("provider ID cannot be empty")
	}
	return ProviderID(s), nil
}
