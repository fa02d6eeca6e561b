package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sharetube/watchtogether/internal/repository/history"
)

type table struct {
	name          string
	payloadColumn string
	hasCaption    bool
}

var tables = map[history.Kind]table{
	history.KindChat:   {name: "chat_messages", payloadColumn: "message"},
	history.KindMood:   {name: "moods", payloadColumn: "mood"},
	history.KindMemory: {name: "memories", payloadColumn: "image_url", hasCaption: true},
}

type repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *repo {
	return &repo{db: db}
}

func (r repo) getTable(kind history.Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("%w: %q", history.ErrUnknownKind, kind)
	}

	return t, nil
}

func (r repo) Append(ctx context.Context, params *history.AppendParams) (history.Record, error) {
	t, err := r.getTable(params.Kind)
	if err != nil {
		return history.Record{}, err
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	record := history.Record{
		Username:  params.Username,
		Payload:   params.Payload,
		CreatedAt: createdAt,
	}

	var row *sqlx.Row
	if t.hasCaption {
		record.Caption = params.Caption
		query := r.db.Rebind(fmt.Sprintf(
			"INSERT INTO %s (username, %s, caption, created_at) VALUES (?, ?, ?, ?) RETURNING id",
			t.name, t.payloadColumn,
		))
		row = r.db.QueryRowxContext(ctx, query, record.Username, record.Payload, record.Caption, record.CreatedAt)
	} else {
		query := r.db.Rebind(fmt.Sprintf(
			"INSERT INTO %s (username, %s, created_at) VALUES (?, ?, ?) RETURNING id",
			t.name, t.payloadColumn,
		))
		row = r.db.QueryRowxContext(ctx, query, record.Username, record.Payload, record.CreatedAt)
	}

	if err := row.Scan(&record.ID); err != nil {
		return history.Record{}, fmt.Errorf("failed to insert into %s: %w", t.name, err)
	}

	return record, nil
}

// ListRecent returns up to limit records, newest first.
func (r repo) ListRecent(ctx context.Context, kind history.Kind, limit int) ([]history.Record, error) {
	t, err := r.getTable(kind)
	if err != nil {
		return nil, err
	}

	caption := "NULL"
	if t.hasCaption {
		caption = "caption"
	}

	query := r.db.Rebind(fmt.Sprintf(
		"SELECT id, username, %s AS payload, %s AS caption, created_at FROM %s ORDER BY created_at DESC, id DESC LIMIT ?",
		t.payloadColumn, caption, t.name,
	))

	records := make([]history.Record, 0, limit)
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", t.name, err)
	}

	return records, nil
}
