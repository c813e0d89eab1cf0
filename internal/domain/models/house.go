// internal/domain/models/house.go
package models

import "time"

// House is a household. Members holds user ids; each member also has a
// per-house Member record under houses/{id}/members.
type House struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Members     []string  `json:"members"`
	DateCreated time.Time `json:"dateCreated"`
	ImageID     string    `json:"imageID"`
	JoinCode    string    `json:"joinCode"`
}

// Member is a user's membership record inside one house.
type Member struct {
	ID             string    `json:"id"`
	Chores         []string  `json:"chores"`
	DateJoined     time.Time `json:"dateJoined"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	OnTimePct      float64   `json:"onTimePct"`
	ProfilePicture string    `json:"profilePicture"`
	Subgroups      []string  `json:"subgroups"`
}
