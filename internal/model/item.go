package model

import (
	"errors"
	"strings"
)

// Item is the domain model for a todo entry.
// ID is assigned by the server and stays zero until the item is created.
type Item struct {
	ID     int    `json:"id,omitempty" yaml:"id,omitempty"`
	UserID int    `json:"userId" yaml:"userId"`
	Title  string `json:"title" yaml:"title"`
}

// Draft is the editable value behind the form, before it is submitted.
type Draft struct {
	UserID int    `json:"userId"`
	Title  string `json:"title"`
}

var (
	ErrMissingOwner = errors.New("owner is required")
	ErrMissingTitle = errors.New("title is required")
)

// Draft projects the item's editable fields.
func (it Item) Draft() Draft {
	return Draft{UserID: it.UserID, Title: it.Title}
}

// Validate checks the required fields. Both errors are reported when both fail.
func (d Draft) Validate() error {
	var errs []error
	if d.UserID <= 0 {
		errs = append(errs, ErrMissingOwner)
	}
	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, ErrMissingTitle)
	}
	return errors.Join(errs...)
}

// Item builds the item a server would store for this draft under id.
func (d Draft) Item(id int) Item {
	return Item{ID: id, UserID: d.UserID, Title: strings.TrimSpace(d.Title)}
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []Item, id int) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
