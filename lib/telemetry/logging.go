package telemetry

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const LogFileName = "syncapp.log"

func ParseLevel(level string) (slog.Level, error) {
	var out slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	err := out.UnmarshalText([]byte(level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return out, nil
}

// InitSlog installs a default text logger writing to every writer given.
func InitSlog(level slog.Level, writers ...io.Writer) *slog.Logger {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stderr}
	}
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// OpenLogFile opens the application log file in dir for appending.
func OpenLogFile(dir string) (*os.File, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(
		filepath.Join(dir, LogFileName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
}

// TailLines returns at most the last n lines of the file at path.
func TailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		return []string{}, nil
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ring, nil
}
