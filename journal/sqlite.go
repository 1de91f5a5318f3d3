package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(fill_id, time, instrument, side, price, shares, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.FillID, f.Time, f.Instrument, f.Side, f.Price, f.Shares, f.Fee,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, stock_value, cash, total_value)
		VALUES (?, ?, ?, ?)`,
		e.Time, e.StockValue, e.Cash, e.TotalValue,
	)
	return err
}

// ListFills returns recorded fills ordered by time.
func (j *SQLiteJournal) ListFills() ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT fill_id, time, instrument, side, price, shares, fee
		FROM fills ORDER BY time, fill_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(&f.FillID, &f.Time, &f.Instrument, &f.Side, &f.Price, &f.Shares, &f.Fee); err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// ListEquity returns recorded equity snapshots ordered by time.
func (j *SQLiteJournal) ListEquity() ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, stock_value, cash, total_value
		FROM equity ORDER BY time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.Time, &e.StockValue, &e.Cash, &e.TotalValue); err != nil {
			return nil, err
		}
		snaps = append(snaps, e)
	}
	return snaps, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
