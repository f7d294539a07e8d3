package models

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority. The empty priority means unset.
func (p Priority) Valid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Category string

const (
	CategoryWork        Category = "WORK"
	CategoryPersonal    Category = "PERSONAL"
	CategoryPhotography Category = "PHOTOGRAPHY"
	CategoryArticles    Category = "ARTICLES"
	CategoryOther       Category = "OTHER"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryPhotography, CategoryArticles, CategoryOther:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo    Status = "TODO"
	StatusOngoing Status = "ONGOING"
	StatusDone    Status = "DONE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusOngoing, StatusDone:
		return true
	}
	return false
}

// Task is embedded in exactly one Account. ID is assigned by the store on push.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Priority  Priority   `json:"priority,omitempty"`
	Category  Category   `json:"category"`
	Status    Status     `json:"status"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Desc      string     `json:"desc,omitempty"`
}

// TaskContent is the mutation input for addTask and updateTask.
type TaskContent struct {
	Name      string     `json:"name"`
	Priority  Priority   `json:"priority,omitempty"`
	Category  Category   `json:"category"`
	Status    Status     `json:"status"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Desc      string     `json:"desc,omitempty"`
}

// Validate checks the required fields and enum values of the content.
func (c TaskContent) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("task name is required")
	}
	if !c.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", c.Priority)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("invalid category %q", c.Category)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	return nil
}

// Task builds a task document from the content, without an identifier.
func (c TaskContent) Task() Task {
	return Task{
		Name:      c.Name,
		Priority:  c.Priority,
		Category:  c.Category,
		Status:    c.Status,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Desc:      c.Desc,
	}
}

// Objective is embedded in an Account and read-only in this service.
type Objective struct {
	Title  string `json:"title"`
	Status bool   `json:"status"`
}
