package models

import (
	"encoding/json"
	"time"
)

// Dashboard is a named widget layout owned by a user.
//
// Layout is a JSON array and Items a JSON object; both are stored and returned
// verbatim. Password is the bcrypt hash, nil when the dashboard is unprotected,
// and is never serialized.
type Dashboard struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Name      string          `json:"name"`
	Layout    json.RawMessage `json:"layout"`
	Items     json.RawMessage `json:"items"`
	NextID    int             `json:"nextId"`
	Password  *string         `json:"-"`
	Shared    bool            `json:"shared"`
	Views     int64           `json:"views"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (d *Dashboard) HasPassword() bool {
	return d.Password != nil && *d.Password != ""
}

// Projection returns the content-only view of d.
func (d *Dashboard) Projection() *DashboardProjection {
	return &DashboardProjection{Name: d.Name, Layout: d.Layout, Items: d.Items}
}

// Summary returns the listing view of d.
func (d *Dashboard) Summary() DashboardSummary {
	return DashboardSummary{
		ID:          d.ID,
		Name:        d.Name,
		Views:       d.Views,
		Shared:      d.Shared,
		HasPassword: d.HasPassword(),
		CreatedAt:   d.CreatedAt,
	}
}

// DashboardProjection exposes only the content of a dashboard.
type DashboardProjection struct {
	Name   string          `json:"name"`
	Layout json.RawMessage `json:"layout"`
	Items  json.RawMessage `json:"items"`
}

type DashboardSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Views       int64     `json:"views"`
	Shared      bool      `json:"shared"`
	HasPassword bool      `json:"hasPassword"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ViewKind tells how much of a dashboard a caller may see.
type ViewKind int

const (
	ViewHidden ViewKind = iota
	ViewProjected
	ViewFull
)

// DashboardView is the outcome of an access decision. Exactly one of
// Dashboard (ViewFull) or Projection (ViewProjected) is set; ViewHidden
// carries neither.
type DashboardView struct {
	Kind       ViewKind
	Dashboard  *Dashboard
	Projection *DashboardProjection
}

func FullView(d *Dashboard) DashboardView {
	return DashboardView{Kind: ViewFull, Dashboard: d}
}

func ProjectedView(d *Dashboard) DashboardView {
	return DashboardView{Kind: ViewProjected, Projection: d.Projection()}
}

func HiddenView() DashboardView {
	return DashboardView{Kind: ViewHidden}
}
