package models

import "time"

// Animal is a livestock record. Sex follows the platform's int convention: 0 male, anything else female.
// Nil pointers mean the source did not state the value.
type Animal struct {
	ID            string     `json:"id"`
	NationalID    string     `json:"nationalId,omitempty"`
	Name          string     `json:"name,omitempty"`
	Description   string     `json:"description,omitempty"`
	Parcel        *Ref       `json:"parcel,omitempty"`
	Sex           *int       `json:"sex,omitempty"`
	Castrated     *bool      `json:"castrated,omitempty"`
	Species       string     `json:"species,omitempty"`
	Breed         string     `json:"breed,omitempty"`
	Birthdate     *time.Time `json:"birthdate,omitempty"`
	Group         string     `json:"group,omitempty"`
	Status        *int       `json:"status,omitempty"`
	InvalidatedAt *time.Time `json:"invalidatedAt,omitempty"`
	Created       *time.Time `json:"created,omitempty"`
	Modified      *time.Time `json:"modified,omitempty"`
}

// SexLabel returns "Male", "Female" or "" when unknown.
func (a Animal) SexLabel() string {
	if a.Sex == nil {
		return ""
	}
	if *a.Sex == 0 {
		return "Male"
	}
	return "Female"
}
