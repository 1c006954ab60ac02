package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestCatalog_DryRun(t *testing.T) {
	out, err := execute(t, "catalog", "graph-mapper/store", "--dry-run", "--func", "StoreTypes")
	require.NoError(t, err)

	assert.Contains(t, out, "// graph-mapper/store/catalog_gen.go")
	assert.Contains(t, out, "func StoreTypes() ([]reflect.Type, error) {")
	assert.Contains(t, out, "reflect.TypeFor[Transfer](),")
}

func TestCatalog_WritesToOutput(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "catalog", "graph-mapper/store", "--output", dir, "--filename", "types_gen.go")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+filepath.Join(dir, "types_gen.go"))

	data, err := os.ReadFile(filepath.Join(dir, "types_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package store")
}

func TestCatalog_InvalidFunc(t *testing.T) {
	_, err := execute(t, "catalog", "graph-mapper/store", "--dry-run", "--func", "lower")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		want    string
	}{
		{
			name: "valid",
			doc: `mappings:
  - from: dictionaries
    target: store.Payment
    derived:
      - if_key: IBAN
        type: store.Transfer
  - source: store.Order
    target: Order
    ignore: Payment
`,
			want: "2 mappings valid",
		},
		{
			name:    "unknown type",
			doc:     "mappings:\n  - source: store.Order\n    target: store.Missing\n",
			wantErr: true,
			want:    `target type "store.Missing" not found`,
		},
		{
			name:    "unknown rule set",
			doc:     "mappings:\n  - from: dynamics\n    target: store.Order\n    rulesets: Sideways\n",
			wantErr: true,
			want:    "unknown rule set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", writeDoc(t, tt.doc), "--pkg", "graph-mapper/store")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidate_NeedsDocument(t *testing.T) {
	_, err := execute(t, "validate")
	require.Error(t, err)
}

func TestDocumentURL(t *testing.T) {
	url, err := documentURL("mem://localhost/mapping.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mem://localhost/mapping.yaml", url)

	url, err = documentURL("mapping.yaml")
	require.NoError(t, err)
	assert.Regexp(t, `^file:///.*/mapping\.yaml$`, url)
}
