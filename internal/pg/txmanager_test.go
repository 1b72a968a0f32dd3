package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertQuery = `INSERT INTO outbox_events (id) VALUES ($1)`

func TestManager_Begin(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		fn        func(conn *Conn) TransactionalFn
		expectErr error
	}{
		{
			name: "Commits when fn succeeds",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
					WithArgs(1).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit()
			},
			fn: func(conn *Conn) TransactionalFn {
				return func(ctx context.Context) error {
					_, err := conn.Exec(ctx, insertQuery, 1)
					return err
				}
			},
		},
		{
			name: "Rolls back when fn fails",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
					WithArgs(1).
					WillReturnError(errors.New("duplicate key"))
				mock.ExpectRollback()
			},
			fn: func(conn *Conn) TransactionalFn {
				return func(ctx context.Context) error {
					_, err := conn.Exec(ctx, insertQuery, 1)
					return err
				}
			},
			expectErr: errors.New("duplicate key"),
		},
		{
			name: "Begin error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))
			},
			fn: func(conn *Conn) TransactionalFn {
				return func(ctx context.Context) error {
					t.Error("fn must not run")
					return nil
				}
			},
			expectErr: errors.New("begin transaction: pool exhausted"),
		},
		{
			name: "Commit error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
			},
			fn: func(conn *Conn) TransactionalFn {
				return func(ctx context.Context) error { return nil }
			},
			expectErr: errors.New("commit transaction: serialization failure"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)
			manager := NewTXManager(mock)
			conn := New(mock)

			err = manager.Begin(context.Background(), tt.fn(conn))
			if tt.expectErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.expectErr.Error(), err.Error())
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestManager_BeginJoinsOuterTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	manager := NewTXManager(mock)
	conn := New(mock)

	err = manager.Begin(context.Background(), func(ctx context.Context) error {
		if _, err := conn.Exec(ctx, insertQuery, 1); err != nil {
			return err
		}
		return manager.Begin(ctx, func(ctx context.Context) error {
			_, err := conn.Exec(ctx, insertQuery, 2)
			return err
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_WithoutTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1`)).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	conn := New(mock)
	var one int
	require.NoError(t, conn.QueryRow(context.Background(), `SELECT 1`).Scan(&one))
	assert.Equal(t, 1, one)
	assert.NoError(t, mock.ExpectationsWereMet())
}
