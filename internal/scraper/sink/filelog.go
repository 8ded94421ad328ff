package sink

import (
	"fmt"
	"os"
)

// FileLog is the append-only output log of discovered links.
type FileLog struct {
	path string
	file *os.File
}

// Create opens path for writing, truncating anything already there.
func Create(path string) (*FileLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileLog{path: path, file: f}, nil
}

// Append writes one "Link <seq>: <url>" line.
func (l *FileLog) Append(seq int, url string) error {
	_, err := fmt.Fprintf(l.file, "Link %d: %s\n", seq, url)
	return err
}

func (l *FileLog) Path() string {
	return l.path
}

func (l *FileLog) Close() error {
	return l.file.Close()
}
