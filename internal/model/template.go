package model

import "time"

// Jurisdiction is a legal jurisdiction the monitor watches. Seeded by
// configuration and read-only to the pipeline.
type Jurisdiction struct {
	ID     string
	Name   string
	Active bool
}

// Template is a legal document template owned by the catalog. The
// pipeline only reads templates and requests new versions.
type Template struct {
	ID             string
	JurisdictionID string
	Title          string
	Category       string
	Active         bool
	CurrentVersion int
}

// TemplateVersion is an immutable, numbered snapshot of a template
// created at publish time. Version numbers increase monotonically per
// template; exactly one version is created per successful publish.
type TemplateVersion struct {
	CreatedAt     time.Time
	TemplateID    string
	Notes         string
	Reason        string
	Actor         string
	Version       int
	ReviewEntryID int64
}
