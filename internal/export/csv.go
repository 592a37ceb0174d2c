// Package export writes resolved audiences out as CSV streams, XLSX workbooks and
// provider recipient strings.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
)

// DefaultBatchSize is the number of rows encoded per write when streaming CSV.
const DefaultBatchSize = 1000

// Cursor is a forward-only row source. Values returns the current row as text.
type Cursor interface {
	Columns() ([]string, error)
	Next() bool
	Values() ([]string, error)
	Err() error
	Close() error
}

// StreamCSV writes the header, then rows in batches of batchSize. Each batch is a
// single Write followed by a flush when w supports it. The cursor is not closed.
func StreamCSV(w io.Writer, cur Cursor, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	cols, err := cur.Columns()
	if err != nil {
		return 0, fmt.Errorf("read columns: %w", err)
	}

	var buf bytes.Buffer
	enc := csv.NewWriter(&buf)

	emit := func() error {
		enc.Flush()
		if err := enc.Error(); err != nil {
			return err
		}
		if buf.Len() == 0 {
			return nil
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		buf.Reset()
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return nil
	}

	if err := enc.Write(cols); err != nil {
		return 0, err
	}
	if err := emit(); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	written, pending := 0, 0
	for cur.Next() {
		row, err := cur.Values()
		if err != nil {
			return written, fmt.Errorf("read row: %w", err)
		}
		if err := enc.Write(row); err != nil {
			return written, err
		}
		pending++
		if pending == batchSize {
			if err := emit(); err != nil {
				return written, fmt.Errorf("write batch: %w", err)
			}
			written += pending
			pending = 0
		}
	}
	if err := cur.Err(); err != nil {
		return written, fmt.Errorf("iterate rows: %w", err)
	}
	if pending > 0 {
		if err := emit(); err != nil {
			return written, fmt.Errorf("write batch: %w", err)
		}
		written += pending
	}
	return written, nil
}

// SliceCursor iterates over rows already in memory.
type SliceCursor struct {
	Cols []string
	Rows [][]string
	pos  int
}

func (c *SliceCursor) Columns() ([]string, error) { return c.Cols, nil }

func (c *SliceCursor) Next() bool {
	if c.pos >= len(c.Rows) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Values() ([]string, error) { return c.Rows[c.pos-1], nil }

func (c *SliceCursor) Err() error { return nil }

func (c *SliceCursor) Close() error { return nil }
