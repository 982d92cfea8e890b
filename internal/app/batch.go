package app

import (
	"bufio"
	"context"
	"strings"
	"time"
)

// SplitBatches splits a script on lines holding only the GO separator. The
// separator is matched case-insensitively and blank batches are dropped.
func SplitBatches(script string) []string {
	var (
		batches []string
		current strings.Builder
	)
	flush := func() {
		if b := strings.TrimSpace(current.String()); b != "" {
			batches = append(batches, b)
		}
		current.Reset()
	}

	sc := bufio.NewScanner(strings.NewReader(script))
	sc.Buffer(make([]byte, 0, 64*1024), len(script)+1)
	for sc.Scan() {
		line := sc.Text()
		if strings.EqualFold(strings.TrimSpace(line), "go") {
			flush()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return batches
}

// ExecuteScript runs each batch of script in order, stopping at the first
// failure. The result is the last batch whose result set had columns, or the
// last batch's empty result when none did.
func (s *Service) ExecuteScript(ctx context.Context, script string) (*QueryResult, error) {
	start := time.Now()
	var shown *QueryResult
	for _, batch := range SplitBatches(script) {
		result, err := s.ExecuteQuery(ctx, batch)
		if err != nil {
			return nil, err
		}
		if shown == nil || len(result.Columns) > 0 || len(shown.Columns) == 0 {
			shown = result
		}
	}
	if shown == nil {
		shown = &QueryResult{}
	}
	shown.Duration = time.Since(start)
	return shown, nil
}
