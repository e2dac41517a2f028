package testsupport

import (
	"encoding/json"
	"os"
	"testing"
)

// ReadFixture returns the bytes of a testdata file or fails the test.
func ReadFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// ReadGolden decodes the JSON golden file at path into v or fails the test.
func ReadGolden(tb testing.TB, path string, v any) {
	tb.Helper()
	if err := json.Unmarshal(ReadFixture(tb, path), v); err != nil {
		tb.Fatalf("decode golden %s: %v", path, err)
	}
}
