package dto

import "github.com/civic-desk/complaint-service/internal/directory"

// RegisterRequest payload for new citizens.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Name     string `json:"name" form:"name"`
	Contact  string `json:"contact" form:"contact"`
	Address  string `json:"address" form:"address"`
	Password string `json:"password" form:"password"`
}

// CitizenLoginRequest payload for citizen login.
type CitizenLoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SubmitComplaintRequest payload for a new complaint.
type SubmitComplaintRequest struct {
	Category    string `json:"category" form:"category"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Location    string `json:"location" form:"location"`
	Priority    string `json:"priority" form:"priority"`
}

// AccountResponse describes the signed-in citizen.
type AccountResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
}

// CitizenHomeResponse is the data of the citizen home view.
type CitizenHomeResponse struct {
	Account    AccountResponse    `json:"account"`
	Categories []directory.Choice `json:"categories"`
	Priorities []directory.Choice `json:"priorities"`
}
