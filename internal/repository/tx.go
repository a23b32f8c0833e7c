package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// withTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.  Panics are rethrown.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// expectOneRow converts a zero RowsAffected into ErrNotFound.
func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// likeEscape escapes LIKE wildcards so user input matches literally.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func rowExists(ctx context.Context, db *sql.DB, q string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// checkOwnerOf returns ErrNotFound when table has no row id and ErrForbidden
// when the row's owner_id is not ownerID.  table is always a constant.
func checkOwnerOf(ctx context.Context, db *sql.DB, table string, id, ownerID uint64) error {
	var owner uint64
	err := db.QueryRowContext(ctx, "SELECT owner_id FROM "+table+" WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	return nil
}
