// Command inspect opens a converted Parquet file and reports its schema,
// row count, and basic integrity: coordinate ranges, H3 index presence, and
// forecast time arithmetic.
//
// Usage:
//
//	go run ./cmd/inspect -file weather.parquet -sample 3
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
)

func main() {
	file := flag.String("file", "", "parquet file to inspect")
	sample := flag.Int("sample", 0, "print this many sample rows")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file, *sample); code != 0 {
		os.Exit(code)
	}
}

func run(path string, sample int) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: not a parquet file: %v\n", err)
		return 1
	}

	fmt.Printf("%s: %d rows, %d row groups\n\n", path, pf.NumRows(), len(pf.RowGroups()))
	fmt.Println("Schema:")
	for _, fld := range pf.Schema().Fields() {
		fmt.Printf("  %-22s %s\n", fld.Name(), fld.Type())
	}

	rows, err := parquet.Read[map[string]any](f, st.Size())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read rows: %v\n", err)
		return 1
	}

	errs := checkRows(rows)

	if sample > 0 {
		fmt.Println("\nSample rows:")
		for i, row := range rows {
			if i >= sample {
				break
			}
			printRow(row)
		}
	}

	fmt.Println()
	if len(errs) == 0 {
		fmt.Println("All checks passed.")
		return 0
	}
	for _, e := range errs {
		fmt.Printf("  FAIL: %s\n", e)
	}
	return 1
}

// checkRows validates the invariants every converted file must hold.
func checkRows(rows []map[string]any) []string {
	var errs []string
	report := func(format string, args ...any) {
		if len(errs) < 20 {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	for i, row := range rows {
		lat, ok := row["latitude"].(float64)
		if !ok {
			report("row %d: missing latitude", i)
			continue
		}
		lon, ok := row["longitude"].(float64)
		if !ok {
			report("row %d: missing longitude", i)
			continue
		}
		if lat < -90 || lat > 90 {
			report("row %d: latitude %g out of range", i, lat)
		}
		if lon < -180 || lon >= 180 {
			report("row %d: longitude %g outside [-180, 180)", i, lon)
		}
		if cell, ok := row["h3_index"].(string); ok && cell == "" {
			report("row %d: empty h3_index", i)
		}
		checkTimes(report, i, row)
	}
	return errs
}

func checkTimes(report func(string, ...any), i int, row map[string]any) {
	runMillis, ok1 := row["run_time"].(int64)
	fcMillis, ok2 := row["forecast_time"].(int64)
	hour, ok3 := row["forecast_hour"].(int32)
	if !ok1 || !ok2 || !ok3 {
		return
	}
	want := time.Duration(hour) * time.Hour
	got := time.Duration(fcMillis-runMillis) * time.Millisecond
	if got != want {
		report("row %d: forecast_time is %s after run_time, forecast_hour says %s", i, got, want)
	}
}

func printRow(row map[string]any) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Print("  {")
	for i, k := range keys {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s=%v", k, row[k])
	}
	fmt.Println("}")
}
