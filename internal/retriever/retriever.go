package retriever

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"propsearch/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// ErrNotReady is returned when retrieval is attempted before the document
// index finished loading.
var ErrNotReady = errors.New("retriever not initialized")

// unknownPropertyID stands in for documents whose metadata lacks an ID.
const unknownPropertyID = "Unknown"

// Embedder produces a query embedding for similarity search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever performs nearest-neighbor search over the pre-built
// property_documents index. The index is immutable at query time; this type
// only ever reads it.
type Retriever struct {
	db       *sqlx.DB
	embedder Embedder
	ready    atomic.Bool
}

// New creates a retriever over the given connection pool. Initialize must
// succeed before Retrieve can be used.
func New(db *sqlx.DB, embedder Embedder) *Retriever {
	return &Retriever{
		db:       db,
		embedder: embedder,
	}
}

// Initialize verifies the document index is reachable and non-empty, then
// marks the retriever ready. A failure leaves the retriever not-ready so the
// caller can retry after remediation.
func (r *Retriever) Initialize(ctx context.Context) error {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM property_documents`); err != nil {
		return fmt.Errorf("failed to load document index: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("document index is empty")
	}

	r.ready.Store(true)
	log.Printf("✅ Document index loaded (%d documents)", count)
	return nil
}

// Ready reports whether the document index has been loaded.
func (r *Retriever) Ready() bool {
	return r.ready.Load()
}

type documentRow struct {
	PropertyID sql.NullString `db:"property_id"`
	Content    string         `db:"content"`
	Metadata   model.JSONMap  `db:"metadata"`
}

// Retrieve returns the k documents nearest to the query, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedDocument, error) {
	if !r.Ready() {
		return nil, ErrNotReady
	}

	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var rows []documentRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT property_id, content, metadata
		FROM property_documents
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search document index: %w", err)
	}

	docs := make([]model.RetrievedDocument, 0, len(rows))
	for i, row := range rows {
		docs = append(docs, model.RetrievedDocument{
			Rank:        i + 1,
			PropertyID:  displayPropertyID(row),
			PageContent: row.Content,
			Metadata:    row.Metadata,
		})
	}
	return docs, nil
}

// displayPropertyID resolves a document's property ID from its row, falling
// back to the metadata mapping and finally to "Unknown".
func displayPropertyID(row documentRow) string {
	if row.PropertyID.Valid && row.PropertyID.String != "" {
		return row.PropertyID.String
	}
	if id, ok := row.Metadata["unique_property_ID"].(string); ok && id != "" {
		return id
	}
	return unknownPropertyID
}
