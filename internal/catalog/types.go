// Package catalog stores the vehicle makes and models offered to users and
// refreshes them from the NHTSA vPIC API. It supplies Vehicle tuples to
// callers of the diagnostic engine and is never used by the engine itself.
package catalog

import "errors"

// ErrNotFound is returned when a requested make does not exist.
var ErrNotFound = errors.New("not found")

// Make is a stored vehicle manufacturer.
type Make struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Model is a stored model of a make. Year bounds are 0 when unknown.
type Model struct {
	ID        int64  `json:"id"`
	MakeID    int64  `json:"make_id"`
	Name      string `json:"name"`
	YearStart int    `json:"year_start,omitempty"`
	YearEnd   int    `json:"year_end,omitempty"`
}

// MakeRecord is a make with its models as fetched from upstream, before it
// is assigned database ids.
type MakeRecord struct {
	Name   string        `json:"name"`
	Models []ModelRecord `json:"models"`
}

type ModelRecord struct {
	Name      string `json:"name"`
	YearStart int    `json:"yearStart"`
	YearEnd   int    `json:"yearEnd"`
}

// UpsertStats counts rows inserted by Store.Upsert.
type UpsertStats struct {
	Makes  int `json:"makes"`
	Models int `json:"models"`
}
