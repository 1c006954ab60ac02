package gen

import (
	"os"
	"path/filepath"
	"strings"
)

// writeDebugUnformatted writes source go/format rejected to a sidecar file
// next to the intended output. It is best-effort.
func writeDebugUnformatted(dir, filename string, content []byte) error {
	if dir == "" || filename == "" {
		return nil
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	debugName := strings.TrimSuffix(filename, ".go") + ".unformatted.go"

	return os.WriteFile(filepath.Join(dir, debugName), content, filePerm)
}
