package mapping

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
dictionaries:
  separator: "-"
synonyms:
  Line1: [Street, AddressLine1]
mappings:
  - source: mapping.CustomerDTO
    target: mapping.Customer
    rulesets: CreateNew
    121:
      FullName: Name
      Street: Address.Line1
    ignore: Tags
  - from: dictionaries
    target: Customer
    full_keys:
      Address.Line2: second-line
    member_keys:
      Name: customer_name
  - from: dynamics
    target: Payment
    derived:
      - if_key: Number
        type: Card
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "1", doc.Version, "version defaults to 1")
	require.NotNil(t, doc.Dictionaries)
	assert.Equal(t, "-", doc.Dictionaries.Separator)
	assert.Equal(t, StringArray{"Street", "AddressLine1"}, doc.Synonyms["Line1"])
	require.Len(t, doc.Mappings, 3)
	assert.Equal(t, StringArray{"CreateNew"}, doc.Mappings[0].RuleSets)
	assert.Equal(t, StringArray{"Tags"}, doc.Mappings[0].Ignore)
	assert.Equal(t, "Name", doc.Mappings[0].OneToOne["FullName"])
	assert.Equal(t, "dictionaries->Customer", doc.Mappings[1].Label())

	_, err = Parse([]byte("mappings: {"))
	require.Error(t, err)
}

func TestWriteAndLoadFile(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, WriteFile(doc, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoader_Fingerprints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0644))

	loader := NewLoader()
	ctx := context.Background()

	doc, changed, err := loader.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, doc.Mappings, 3)

	_, changed, err = loader.Load(ctx, path)
	require.NoError(t, err)
	assert.False(t, changed, "unchanged content")

	require.NoError(t, os.WriteFile(path, []byte(sampleDoc+"\nversion: \"1\"\n"), 0644))

	_, changed, err = loader.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint([]byte("a"))
	require.NoError(t, err)

	b, err := Fingerprint([]byte("b"))
	require.NoError(t, err)

	again, err := Fingerprint([]byte("a"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}
