package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docqna/internal/config"
)

// chunkRow is one indexed chunk in the pgvector-backed table.
type chunkRow struct {
	bun.BaseModel `bun:"table:document_chunks,alias:dc"`
	ID            string    `bun:"id,pk"`
	UserID        string    `bun:"user_id,notnull"`
	DocumentID    string    `bun:"document_id,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(384)"`
	Similarity    float32   `bun:"similarity,scanonly"`
}

// PostgresStore indexes chunks in a Postgres table with a pgvector column.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg *config.PostgresConfig) (*PostgresStore, error) {
	dsn := cfg.URL + "?sslmode=disable"
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create chunk table: %v", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(records))
	for i, rec := range records {
		rows[i] = chunkRow{
			ID:         rec.ID,
			UserID:     rec.Metadata[MetaUserID],
			DocumentID: rec.Metadata[MetaDocumentID],
			Content:    rec.Metadata[MetaText],
			Embedding:  rec.Embedding,
		}
	}
	_, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store chunks: %v", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, embedding []float32, topK int, userID string) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	var rows []chunkRow
	q := s.db.NewSelect().
		Model(&rows).
		Column("id", "user_id", "document_id", "content").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", embedding).
		OrderExpr("embedding <=> ?", embedding).
		Limit(topK)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to search chunks: %v", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, Match{
			ID:         row.ID,
			Similarity: row.Similarity,
			Content:    row.Content,
			Metadata: map[string]string{
				MetaUserID:     row.UserID,
				MetaDocumentID: row.DocumentID,
				MetaText:       row.Content,
			},
		})
	}
	return matches, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
