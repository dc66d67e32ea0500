// Package storage defines the document directory abstraction.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/starford/blockpress/internal/models"
)

// Ext is the file extension of a stored document.
const Ext = ".html"

// Provider is the interface for document file operations.
type Provider interface {
	// List returns metadata for every document file under dir (relative to the root).
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the root).
	Move(oldPath, newPath string) error
}

// PathFor maps a document name to its file path.
func PathFor(name string) string {
	return filepath.ToSlash(name) + Ext
}

// NameFor maps a document file path back to its name. It reports false
// for files that are not documents.
func NameFor(path string) (string, bool) {
	path = filepath.ToSlash(path)
	if !strings.HasSuffix(path, Ext) {
		return "", false
	}
	return strings.TrimSuffix(path, Ext), true
}
