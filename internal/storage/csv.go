package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/neural-prosthetics/neuromotion/internal/decode"
	"github.com/neural-prosthetics/neuromotion/internal/session"
)

// CSV layout of a recorded session, one row per tick:
//
//	t_ms,count0..countN-1,angle0..angleN-1
//
// The angle columns may be omitted entirely; they are then derived from the
// counts with the mapper. The same derivation applies when angle columns are
// present but all zero while counts are not, which is how exports from
// hosts without a configured mapper look.

const timeColumn = "t_ms"

// ReadCSV parses a recorded session from r. Returns the records and the
// actuator count inferred from the header.
func ReadCSV(r io.Reader, mapper decode.Mapper) ([]session.Record, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}

	actuators, hasAngles, err := parseHeader(header)
	if err != nil {
		return nil, 0, err
	}

	var records []session.Record
	anyCount := false
	anyAngle := false

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		record, err := parseRow(row, actuators, hasAngles)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		for i := range record.Counts {
			if record.Counts[i] != 0 {
				anyCount = true
			}
			if hasAngles && record.Angles[i] != 0 {
				anyAngle = true
			}
		}

		records = append(records, record)
	}

	// Angles missing, or recorded as flat zero against live counts: derive
	// them so replay commands actual motion.
	if !hasAngles || (anyCount && !anyAngle) {
		for i := range records {
			records[i].Angles = mapper.MapAll(records[i].Counts)
		}
	}

	return records, actuators, nil
}

// ReadCSVFile reads a recorded session from a file.
func ReadCSVFile(path string, mapper decode.Mapper) (records []session.Record, actuators int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer closeWithError(f, &err)

	return ReadCSV(f, mapper)
}

// WriteCSV writes records in the recorded-session layout.
func WriteCSV(w io.Writer, records []session.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to write")
	}

	writer := csv.NewWriter(w)
	actuators := len(records[0].Counts)

	header := []string{timeColumn}
	for i := 0; i < actuators; i++ {
		header = append(header, "count"+strconv.Itoa(i))
	}
	for i := 0; i < actuators; i++ {
		header = append(header, "angle"+strconv.Itoa(i))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, 0, 1+2*actuators)
	for _, r := range records {
		row = row[:0]
		row = append(row, strconv.FormatInt(r.T.Milliseconds(), 10))
		for _, c := range r.Counts {
			row = append(row, strconv.Itoa(c))
		}
		for _, a := range r.Angles {
			row = append(row, strconv.Itoa(a))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	return nil
}

// WriteCSVFile writes records to a file.
func WriteCSVFile(path string, records []session.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer closeWithError(f, &err)

	return WriteCSV(f, records)
}

func parseHeader(header []string) (actuators int, hasAngles bool, err error) {
	if len(header) < 2 || header[0] != timeColumn {
		return 0, false, fmt.Errorf("invalid header: first column must be %q", timeColumn)
	}

	// Columns are positional: count0..countN-1 in order, then angle0..angleN-1.
	// Anything out of sequence would land values in the wrong actuator slot.
	counts := 0
	angles := 0
	for _, col := range header[1:] {
		switch {
		case col == "count"+strconv.Itoa(counts):
			if angles != 0 {
				return 0, false, fmt.Errorf("invalid header: count column %q after angle columns", col)
			}
			counts++
		case col == "angle"+strconv.Itoa(angles):
			angles++
		default:
			return 0, false, fmt.Errorf("invalid header: unexpected column %q", col)
		}
	}

	if counts == 0 {
		return 0, false, fmt.Errorf("invalid header: no count columns")
	}
	if angles != 0 && angles != counts {
		return 0, false, fmt.Errorf("invalid header: %d count columns but %d angle columns", counts, angles)
	}

	return counts, angles != 0, nil
}

func parseRow(row []string, actuators int, hasAngles bool) (session.Record, error) {
	want := 1 + actuators
	if hasAngles {
		want += actuators
	}
	if len(row) != want {
		return session.Record{}, fmt.Errorf("expected %d fields, got %d", want, len(row))
	}

	tms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return session.Record{}, fmt.Errorf("invalid time %q: %w", row[0], err)
	}

	record := session.Record{
		T:      time.Duration(tms) * time.Millisecond,
		Counts: make(decode.Counts, actuators),
		Angles: make(decode.Angles, actuators),
	}

	for i := 0; i < actuators; i++ {
		if record.Counts[i], err = strconv.Atoi(row[1+i]); err != nil {
			return session.Record{}, fmt.Errorf("invalid count %q: %w", row[1+i], err)
		}
	}

	if hasAngles {
		for i := 0; i < actuators; i++ {
			if record.Angles[i], err = strconv.Atoi(row[1+actuators+i]); err != nil {
				return session.Record{}, fmt.Errorf("invalid angle %q: %w", row[1+actuators+i], err)
			}
		}
	}

	return record, nil
}
