package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time, mode, config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    mode,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    mode,
    config
FROM sessions
ORDER BY start_time`

	insertRecordSQL = `
INSERT INTO records (session_id, t_ms, actuator, count, angle)
VALUES (?, ?, ?, ?, ?)`

	selectRecordsSQL = `
SELECT
    t_ms,
    actuator,
    count,
    angle
FROM records
WHERE
    session_id = ?
ORDER BY t_ms, actuator`
)

//go:embed schema.sql
var initSchemaSQL string
