package mapping

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// LoadFile loads and parses a YAML mapping document from the given path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	applyDefaults(&doc)

	return &doc, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(doc *Document) {
	if doc.Version == "" {
		doc.Version = "1"
	}
}

// Marshal serializes a Document to YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// WriteFile writes a Document to the given path.
func WriteFile(doc *Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}

	return nil
}

// Fingerprint hashes document content.
func Fingerprint(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}

	_, err = hash.Write(data)

	return hash.Sum64(), err
}

// Loader fetches mapping documents from any URL the afs service supports
// (file://, mem://, s3://, gs:// ...) and remembers their fingerprints.
type Loader struct {
	fs   afs.Service
	mu   sync.Mutex
	seen map[string]uint64
}

// NewLoader creates a loader backed by afs.
func NewLoader() *Loader {
	return &Loader{fs: afs.New(), seen: make(map[string]uint64)}
}

// Load downloads and parses the document at URL. changed is false when the
// content is identical to the previous load of the same URL.
func (l *Loader) Load(ctx context.Context, URL string) (doc *Document, changed bool, err error) {
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to download mapping %s: %w", URL, err)
	}

	sum, err := Fingerprint(data)
	if err != nil {
		return nil, false, err
	}

	doc, err = Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", URL, err)
	}

	l.mu.Lock()
	prev, ok := l.seen[URL]
	l.seen[URL] = sum
	l.mu.Unlock()

	return doc, !ok || prev != sum, nil
}
