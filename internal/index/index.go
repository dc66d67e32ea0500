package index

// DocumentIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string) error
	DeleteDocument(name string) error
	GetChecksum(name string) (string, error)
	GetDocument(name string) (*DocumentRow, error)
	ListDocuments(limit, offset int, blockType, sort string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	BlockTypeUsage() (map[string]int, error)
	DocumentsWithType(blockType string) ([]string, error)
	AllNames() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
