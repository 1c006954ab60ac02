package gen

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes generated files. Files go to outputDir when it is set,
// otherwise next to the sources of their package.
func WriteFiles(files []GeneratedFile, outputDir string) ([]string, error) {
	written := make([]string, 0, len(files))

	for _, file := range files {
		dir := outputDir
		if dir == "" {
			dir = file.Dir
		}

		if dir == "" {
			return written, fmt.Errorf("no output directory for package %s", file.Package)
		}

		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return written, fmt.Errorf("creating output directory: %w", err)
		}

		outputPath := filepath.Join(dir, file.Filename)
		if err := os.WriteFile(outputPath, file.Content, filePerm); err != nil {
			return written, fmt.Errorf("writing file %s: %w", outputPath, err)
		}

		written = append(written, outputPath)
	}

	return written, nil
}
