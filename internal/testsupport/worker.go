package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteStubWorker writes an executable /bin/sh script named name into dir and
// returns its path. body is inserted after the shebang line.
func WriteStubWorker(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	target := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
