// Package feed reads bar series from disk.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/ivtrader/market"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CSVBars reads bar rows:
//
//	time,high,low,close,volume[,iv]
//
// A single header row is allowed, blank rows are skipped, and an empty iv
// column means the bar carries no implied volatility. Every bar is validated
// as it is read.
type CSVBars struct {
	f    io.Closer
	r    *csv.Reader
	line int
	loc  *time.Location

	sawFirst bool
}

// OpenCSV opens path. Timestamps without a zone are read in loc (UTC when
// nil).
func OpenCSV(path string, loc *time.Location) (*CSVBars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	b := NewCSV(f, loc)
	b.f = f
	return b, nil
}

func NewCSV(r io.Reader, loc *time.Location) *CSVBars {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVBars{r: cr, loc: loc}
}

func (b *CSVBars) Close() error {
	if b.f != nil {
		return b.f.Close()
	}
	return nil
}

// Next returns the next bar. ok is false at end of input.
func (b *CSVBars) Next() (bar market.Bar, ok bool, err error) {
	for {
		row, err := b.r.Read()
		if err == io.EOF {
			return market.Bar{}, false, nil
		}
		if err != nil {
			return market.Bar{}, false, err
		}
		b.line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		if !b.sawFirst {
			b.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		bar, err := parseBarRow(row, b.loc)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("line %d: %w", b.line, err)
		}
		return bar, true, nil
	}
}

// ReadAll drains the reader into a validated series.
func (b *CSVBars) ReadAll() (market.Series, error) {
	var out market.Series
	for {
		bar, ok, err := b.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, bar)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile loads a whole CSV bar file.
func ReadFile(path string, loc *time.Location) (market.Series, error) {
	b, err := OpenCSV(path, loc)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return b.ReadAll()
}

func parseBarRow(row []string, loc *time.Location) (market.Bar, error) {
	if len(row) < 5 {
		return market.Bar{}, fmt.Errorf("%w: want at least 5 columns, got %d", market.ErrInvalidInput, len(row))
	}

	ts, err := parseTime(strings.TrimSpace(row[0]), loc)
	if err != nil {
		return market.Bar{}, err
	}

	var vals [4]float64
	names := [4]string{"high", "low", "close", "volume"}
	for i := range vals {
		s := strings.TrimSpace(row[i+1])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("%w: bad %s %q", market.ErrInvalidInput, names[i], s)
		}
		vals[i] = v
	}

	bar := market.Bar{
		Time:   ts,
		High:   vals[0],
		Low:    vals[1],
		Close:  vals[2],
		Volume: vals[3],
	}
	if len(row) > 5 {
		if s := strings.TrimSpace(row[5]); s != "" {
			iv, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return market.Bar{}, fmt.Errorf("%w: bad iv %q", market.ErrInvalidInput, s)
			}
			bar.IV = iv
			bar.HasIV = true
		}
	}
	if err := bar.Validate(); err != nil {
		return market.Bar{}, err
	}
	return bar, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty time", market.ErrInvalidInput)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad time %q", market.ErrInvalidInput, s)
}
