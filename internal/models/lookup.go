package models

// IssueType classifies an issue (bug, feature request, ...).
type IssueType struct {
	ID   uint64 `gorm:"primarykey" json:"type_id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"type_name"`
}

func (IssueType) TableName() string {
	return "types"
}

type Priority struct {
	ID   uint64 `gorm:"primarykey" json:"priority_id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"priority_name"`
}

func (Priority) TableName() string {
	return "priority"
}

type Product struct {
	ID   uint64 `gorm:"primarykey" json:"product_id"`
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"product_name"`
}

// DefaultIssueTypes is the predefined issue type set.
func DefaultIssueTypes() []IssueType {
	return []IssueType{
		{ID: 1, Name: "Bug"},
		{ID: 2, Name: "Feature"},
		{ID: 3, Name: "Improvement"},
		{ID: 4, Name: "Question"},
	}
}

// DefaultPriorities is the predefined priority set, lowest first.
func DefaultPriorities() []Priority {
	return []Priority{
		{ID: 1, Name: "Low"},
		{ID: 2, Name: "Medium"},
		{ID: 3, Name: "High"},
		{ID: 4, Name: "Critical"},
	}
}
