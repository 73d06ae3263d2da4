package archive

import "database/sql"

// SaveReport inserts or replaces the archived report for a window.
func (db *DB) SaveReport(r Report) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO reports
		(window_key, start_date, end_date, title, body_markdown, entry_count, gap_count, theme_count, record_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.WindowKey, r.StartDate, r.EndDate, r.Title, r.BodyMarkdown,
		r.EntryCount, r.GapCount, r.ThemeCount, r.RecordID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetReport returns the archived report for a window key, or nil.
func (db *DB) GetReport(windowKey string) (*Report, error) {
	row := db.conn.QueryRow(
		`SELECT id, window_key, start_date, end_date, title, body_markdown,
			entry_count, gap_count, theme_count, record_id, generated_at
		FROM reports WHERE window_key = ?`, windowKey,
	)

	var r Report
	if err := row.Scan(&r.ID, &r.WindowKey, &r.StartDate, &r.EndDate, &r.Title,
		&r.BodyMarkdown, &r.EntryCount, &r.GapCount, &r.ThemeCount,
		&r.RecordID, &r.GeneratedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// GetAllReports returns all archived reports, newest window first.
func (db *DB) GetAllReports() ([]Report, error) {
	rows, err := db.conn.Query(
		`SELECT id, window_key, start_date, end_date, title, body_markdown,
			entry_count, gap_count, theme_count, record_id, generated_at
		FROM reports ORDER BY start_date DESC, window_key DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.WindowKey, &r.StartDate, &r.EndDate, &r.Title,
			&r.BodyMarkdown, &r.EntryCount, &r.GapCount, &r.ThemeCount,
			&r.RecordID, &r.GeneratedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// RecordRun appends a run outcome to the history.
func (db *DB) RecordRun(r Run) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO runs (window_key, state, error, entry_count, gap_count, defect_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.WindowKey, r.State, r.Error, r.EntryCount, r.GapCount, r.DefectCount,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRuns returns the most recent runs, newest first, up to limit.
func (db *DB) GetRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, window_key, state, error, entry_count, gap_count, defect_count, finished_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.WindowKey, &r.State, &r.Error,
			&r.EntryCount, &r.GapCount, &r.DefectCount, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate archive statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM reports", &s.Reports},
		{"SELECT COUNT(*) FROM runs", &s.Runs},
		{"SELECT COUNT(*) FROM runs WHERE state = 'Failed'", &s.FailedRuns},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	row := db.conn.QueryRow("SELECT window_key FROM reports ORDER BY end_date DESC LIMIT 1")
	if err := row.Scan(&s.LastWindowKey); err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return s, nil
}
