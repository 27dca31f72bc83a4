package session

// Log is the append-only tick record of a running session. It lives in
// memory for the session's lifetime and is flushed to persistent storage on
// Stop in live mode; a flushed log replayed through RecordedSource reproduces
// the session.
type Log struct {
	records []Record
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a record. Records are never mutated once appended.
func (l *Log) Append(r Record) {
	l.records = append(l.records, r)
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// Records returns the appended records in order. The slice is shared; callers
// must not modify it.
func (l *Log) Records() []Record {
	return l.records
}

// Reset discards all records.
func (l *Log) Reset() {
	l.records = nil
}
