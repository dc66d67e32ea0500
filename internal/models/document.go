// Package models defines the domain types for Blockpress.
package models

import "time"

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Name       string         `json:"name"`
	Title      string         `json:"title,omitempty"`
	Checksum   string         `json:"checksum"`
	Blocks     int            `json:"blocks"`
	BlockTypes map[string]int `json:"block_types,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// SearchResult is one full-text match.
type SearchResult struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet"`
}
