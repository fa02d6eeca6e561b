package sql

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sharetube/watchtogether/internal/repository/history"
	"github.com/sharetube/watchtogether/pkg/dbclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := dbclient.NewDB(ctx, &dbclient.Config{Driver: dbclient.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db.DB, dbclient.DriverSQLite))

	return db
}

func TestAppendAndListRecent(t *testing.T) {
	r := NewRepo(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 2, 14, 20, 0, 0, 0, time.UTC)

	for i, text := range []string{"hi", "hello", "movie time"} {
		record, err := r.Append(ctx, &history.AppendParams{
			Kind:      history.KindChat,
			Username:  "ann",
			Payload:   text,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		assert.NotZero(t, record.ID, "id must be assigned")
	}

	records, err := r.ListRecent(ctx, history.KindChat, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "movie time", records[0].Payload, "newest first")
	assert.Equal(t, "hello", records[1].Payload)
	assert.Equal(t, "ann", records[0].Username)
	assert.Nil(t, records[0].Caption)
	assert.True(t, records[0].CreatedAt.Equal(base.Add(2*time.Minute)), "created_at must round-trip")
}

func TestMemoryCaption(t *testing.T) {
	r := NewRepo(newTestDB(t))
	ctx := context.Background()

	caption := "first date"
	_, err := r.Append(ctx, &history.AppendParams{
		Kind:     history.KindMemory,
		Username: "bob",
		Payload:  "https://cdn/1.png",
		Caption:  &caption,
	})
	require.NoError(t, err)
	_, err = r.Append(ctx, &history.AppendParams{
		Kind:     history.KindMemory,
		Username: "bob",
		Payload:  "https://cdn/2.png",
	})
	require.NoError(t, err)

	records, err := r.ListRecent(ctx, history.KindMemory, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byURL := map[string]history.Record{}
	for _, rec := range records {
		byURL[rec.Payload] = rec
	}
	require.NotNil(t, byURL["https://cdn/1.png"].Caption)
	assert.Equal(t, caption, *byURL["https://cdn/1.png"].Caption)
	assert.Nil(t, byURL["https://cdn/2.png"].Caption)
}

func TestKindsAreSeparated(t *testing.T) {
	r := NewRepo(newTestDB(t))
	ctx := context.Background()

	_, err := r.Append(ctx, &history.AppendParams{Kind: history.KindMood, Username: "ann", Payload: "happy"})
	require.NoError(t, err)

	chat, err := r.ListRecent(ctx, history.KindChat, 10)
	require.NoError(t, err)
	assert.Empty(t, chat)

	moods, err := r.ListRecent(ctx, history.KindMood, 10)
	require.NoError(t, err)
	require.Len(t, moods, 1)
	assert.Equal(t, "happy", moods[0].Payload)

	_, err = r.ListRecent(ctx, history.Kind("secrets"), 10)
	assert.ErrorIs(t, err, history.ErrUnknownKind)
}
