package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/crimson-sun/dropoff/internal/source"
)

// maxLine bounds a single log line.
const maxLine = 1 << 20

var errNoPath = errors.New("file source: path is required")

func init() {
	source.Register("file", func() source.Source {
		return &Source{}
	})
}

// Source reads one raw record per line from a plain text file.
type Source struct{}

func (s *Source) Lines(ctx context.Context, cfg source.Config) ([]string, error) {
	if cfg.Path == "" {
		return nil, errNoPath
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		if len(lines)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("file source: read %s: %w", cfg.Path, err)
	}
	return lines, nil
}
