// internal/domain/models/user.go
package models

// User is an account. HouseID is the house the user last joined ("" when
// the user belongs to none).
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	HouseID string `json:"houseID"`
	Name    string `json:"name"`
}
