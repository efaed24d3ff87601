package models

import "strings"

// StatusID is the closed set of issue states. Closed is terminal.
type StatusID uint64

const (
	StatusTriage StatusID = iota + 1
	StatusInvalid
	StatusClarify
	StatusResolving
	StatusVerify
	StatusClosed
)

var statusNames = map[StatusID]string{
	StatusTriage:    "Triage",
	StatusInvalid:   "Invalid",
	StatusClarify:   "Clarify",
	StatusResolving: "Resolving",
	StatusVerify:    "Verify",
	StatusClosed:    "Closed",
}

// Valid reports whether s is one of the enumerated states.
func (s StatusID) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal reports whether no further mutation is accepted in state s.
func (s StatusID) IsTerminal() bool {
	return s == StatusClosed
}

func (s StatusID) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseStatus resolves a status by name, case-insensitively.
func ParseStatus(name string) (StatusID, bool) {
	for id, n := range statusNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return id, true
		}
	}
	return 0, false
}

// Status is the lookup row backing StatusID so issues can reference it.
type Status struct {
	ID   StatusID `gorm:"primarykey;autoIncrement:false" json:"status_id"`
	Name string   `gorm:"type:varchar(50);uniqueIndex;not null" json:"status_name"`
}

// DefaultStatuses returns one row per enumerated state, ordered by ID.
func DefaultStatuses() []Status {
	statuses := make([]Status, 0, len(statusNames))
	for id := StatusTriage; id <= StatusClosed; id++ {
		statuses = append(statuses, Status{ID: id, Name: id.String()})
	}
	return statuses
}
