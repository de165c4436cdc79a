package model

import "time"

type Status uint8

const (
	StatusActive Status = iota + 1
	StatusBanned
)

func NewUser(id, name string) User {
	return User{ID: id, Name: name, Status: StatusActive, CreatedAt: time.Now()}
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Status    Status    `json:"status"`
	// Games won, a shared first place counts
	Stars int `json:"stars"`
	Games int `json:"games"`
}
