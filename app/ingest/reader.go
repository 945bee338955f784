package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/umputun/tweet-ingest/lib/record"
)

const maxLineSize = 1024 * 1024

// ReadStats reports lines read from an upstream stream
type ReadStats struct {
	Lines   int `json:"lines"`
	Records int `json:"records"`
	Invalid int `json:"invalid"`
}

// ReadUpstream reads upstream records as json lines and calls fn with batches of up to batchSize records.
// Empty lines are skipped, malformed lines and records without id are logged and counted as invalid.
// Stops on the first fn error or context cancellation.
func ReadUpstream(ctx context.Context, r io.Reader, batchSize int, fn func([]record.Upstream) error) (ReadStats, error) {
	if batchSize <= 0 {
		batchSize = 1
	}
	var stats ReadStats
	batch := make([]record.Upstream, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]record.Upstream, 0, batchSize)
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Lines++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var u record.Upstream
		if err := json.Unmarshal(line, &u); err != nil {
			log.Printf("[WARN] skip malformed line %d, %v", stats.Lines, err)
			stats.Invalid++
			continue
		}
		if u.ID <= 0 {
			log.Printf("[WARN] skip record without id at line %d", stats.Lines)
			stats.Invalid++
			continue
		}
		stats.Records++
		batch = append(batch, u)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read upstream: %w", err)
	}
	return stats, flush()
}
