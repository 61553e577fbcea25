package shared

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func TestAuditLoggerRecord(t *testing.T) {
	db := &fakeDB{}
	logger := NewAuditLogger(db)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  1,
		Action:   "access.permissions.set",
		Entity:   "user",
		EntityID: "7",
		Meta:     map[string]any{"added": []string{"products.delete"}},
		At:       at,
	})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)

	args := db.calls[0].args
	assert.Equal(t, int64(1), args[0])
	assert.Equal(t, "access.permissions.set", args[1])
	var meta map[string][]string
	require.NoError(t, json.Unmarshal(args[4].([]byte), &meta))
	assert.Equal(t, []string{"products.delete"}, meta["added"])
	assert.Equal(t, &at, args[5])
}

func TestAuditLoggerRecordRequiresFields(t *testing.T) {
	db := &fakeDB{}
	err := NewAuditLogger(db).Record(context.Background(), AuditLog{Action: "access.role.changed"})
	require.Error(t, err)
	assert.Empty(t, db.calls)

	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{}))
}

func TestAuditLoggerWithDB(t *testing.T) {
	first, second := &fakeDB{}, &fakeDB{err: errors.New("tx aborted")}
	logger := NewAuditLogger(first).WithDB(second)

	err := logger.Record(context.Background(), AuditLog{Action: "a", Entity: "user", EntityID: "1"})
	require.EqualError(t, err, "tx aborted")
	assert.Empty(t, first.calls)
	assert.Len(t, second.calls, 1)
}
