package models

// Library is one top-level library on the Kavita server.
type Library struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
