package main

import (
	"io"

	appLog "calmark/internal/log"
	"calmark/internal/marker"
)

func readTarget(path string) (string, error) {
	return marker.ReadFile(path)
}

// writeOutput prints the document to stdout unless an output path was
// given, in which case it replaces that file atomically.
func writeOutput(path, content string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, content+"\n")
		return err
	}
	if err := marker.WriteFileAtomic(path, []byte(content)); err != nil {
		return err
	}
	appLog.Info("output written", "path", path, "bytes", len(content))
	return nil
}
