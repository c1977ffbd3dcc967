package gfs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// inventoryEntry is one record of a wgrib2-style .idx sidecar file:
//
//	4:1593790:d=2024011512:UGRD:10 m above ground:anl:
//
// End is the inclusive last byte of the record, or 0 when the record runs
// to the end of the file.
type inventoryEntry struct {
	Param string
	Level string
	Start int64
	End   int64
}

// parseInventory reads a .idx sidecar. Record extents are derived from
// consecutive start offsets: each record ends one byte before the next one
// begins.
func parseInventory(r io.Reader) ([]inventoryEntry, error) {
	var entries []inventoryEntry

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 6 {
			return nil, fmt.Errorf("parse inventory: unexpected field count in line %q", line)
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse inventory: invalid offset %q: %w", fields[1], err)
		}
		if n := len(entries); n > 0 {
			entries[n-1].End = start - 1
		}
		entries = append(entries, inventoryEntry{
			Param: fields[3],
			Level: fields[4],
			Start: start,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	return entries, nil
}

// findRecord locates the first inventory entry matching the parameter and
// level strings exactly.
func findRecord(entries []inventoryEntry, param, level string) (inventoryEntry, bool) {
	for _, e := range entries {
		if e.Param == param && e.Level == level {
			return e, true
		}
	}
	return inventoryEntry{}, false
}
