package output

import (
	"bufio"
	"os"
)

// DefaultLogLines is the number of node log lines shown when a node fails.
const DefaultLogLines = 20

// ReadLastLines reads the last n lines from a file.
func ReadLastLines(filePath string, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultLogLines
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileNotFoundError{Path: filePath}
		}
		if os.IsPermission(err) {
			return nil, &PermissionDeniedError{Path: filePath}
		}
		return nil, err
	}
	defer file.Close()

	// Ring buffer of the last n lines; node logs can grow large.
	ring := make([]string, 0, n)
	start := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) < n {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[start] = scanner.Text()
		start = (start + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(ring) == 0 {
		return nil, &EmptyFileError{Path: filePath}
	}

	return append(ring[start:], ring[:start]...), nil
}

// TailLines is ReadLastLines for error reporting: any read failure yields nil.
func TailLines(filePath string, n int) []string {
	lines, err := ReadLastLines(filePath, n)
	if err != nil {
		return nil
	}
	return lines
}

// FileNotFoundError indicates the log file does not exist.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return "no log file found at " + e.Path
}

// PermissionDeniedError indicates the log file cannot be read due to permissions.
type PermissionDeniedError struct {
	Path string
}

func (e *PermissionDeniedError) Error() string {
	return "cannot read log file: permission denied at " + e.Path
}

// EmptyFileError indicates the log file is empty.
type EmptyFileError struct {
	Path string
}

func (e *EmptyFileError) Error() string {
	return "log file is empty at " + e.Path
}
