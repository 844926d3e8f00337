package models

type Customer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Lang     string `json:"lang,omitempty"`
}
