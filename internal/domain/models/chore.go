// internal/domain/models/chore.go
package models

// Chore is a recurring task inside a house.
//
// NOTE:
//   - FrequencyPattern is one of once | daily | weekly | monthly.
//   - FrequencyDays are weekdays (0 = Monday) for weekly chores and
//     days of the month for monthly ones.
//   - StartDate is a YYYY-MM-DD string.
type Chore struct {
	ID               string   `json:"id"`
	Assignees        []string `json:"assignees"`
	Description      string   `json:"description"`
	Emoji            string   `json:"emoji"`
	FrequencyDays    []int    `json:"frequencyDays"`
	FrequencyPattern string   `json:"frequencyPattern"`
	Name             string   `json:"name"`
	StartDate        string   `json:"startDate"`
}

// ChoreInstance is one dated occurrence of a chore. ChoreID is not checked
// against the chores collection.
type ChoreInstance struct {
	ID       string `json:"id"`
	Assignee string `json:"assignee"`
	ChoreID  string `json:"choreID"`
	DueDate  string `json:"dueDate"`
	IsDone   bool   `json:"isDone"`
}
