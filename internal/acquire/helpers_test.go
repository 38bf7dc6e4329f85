package acquire_test

import (
	"archive/zip"
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name    string
	content string
	mode    os.FileMode
}

func mkdir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.name, Method: zip.Deflate}
		if entry.mode != 0 {
			header.SetMode(entry.mode)
		}
		fileWriter, err := writer.CreateHeader(header)
		require.NoError(t, err)
		if entry.content != "" {
			_, err = fileWriter.Write([]byte(entry.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, buildZip(t, entries), 0o600))
}
