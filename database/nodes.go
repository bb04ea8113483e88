package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
	loadSql "github.com/siherrmann/wellgraph/sql"
)

// NodesDBHandlerFunctions defines the interface for node database operations.
type NodesDBHandlerFunctions interface {
	InsertNode(node *model.Node, embedding []float32) error
	SelectNode(id string) (*model.Node, error)
	SelectAllNodes() ([]*model.Node, error)
	DeleteNode(id string) error
	Search(ctx context.Context, embedding []float32, limit int, filter *model.SearchFilter) ([]model.SearchHit, error)
	CountDocuments(ctx context.Context, filter *model.SearchFilter) (int, error)
}

// NodesDBHandler stores graph nodes together with their embeddings.
// It serves as vector store and exact document counter of the retrieval engine.
type NodesDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewNodesDBHandler creates a new nodes database handler.
// It loads the node SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNodesDBHandler(db *helper.Database, embeddingDim int, force bool) (*NodesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	nodesDbHandler := &NodesDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadNodesSql(nodesDbHandler.db, force)
	if err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	err = nodesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized NodesDBHandler")

	return nodesDbHandler, nil
}

// CreateTable creates the 'nodes' table with its vector index if it does not exist
func (h *NodesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_nodes($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("init nodes", err)
	}

	h.db.Logger.Info("Checked/created table nodes")

	return nil
}

// InsertNode inserts or replaces a node. A nil embedding keeps a stored one.
func (h *NodesDBHandler) InsertNode(node *model.Node, embedding []float32) error {
	if embedding != nil && len(embedding) != h.embeddingDim {
		return helper.NewError("embedding validation", fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(embedding)))
	}

	var vector any
	if embedding != nil {
		vector = pgvector.NewVector(embedding)
	}

	wellID, _ := node.String(model.AttrWellID)
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_node($1, $2, $3, $4, $5, $6)`,
		node.ID,
		string(node.Type),
		string(node.Domain),
		nullString(wellID),
		model.Metadata(node.Fields()),
		vector,
	)

	stored, err := scanNode(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*node = *stored

	return nil
}

// SelectNode retrieves a node by id
func (h *NodesDBHandler) SelectNode(id string) (*model.Node, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node($1)`,
		id,
	)

	node, err := scanNode(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// SelectAllNodes retrieves all nodes ordered by id
func (h *NodesDBHandler) SelectAllNodes() ([]*model.Node, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_nodes()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var nodes []*model.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		nodes = append(nodes, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return nodes, nil
}

// DeleteNode deletes a node by id
func (h *NodesDBHandler) DeleteNode(id string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_node($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// Search returns the nodes most similar to the embedding by cosine similarity
func (h *NodesDBHandler) Search(ctx context.Context, embedding []float32, limit int, filter *model.SearchFilter) ([]model.SearchHit, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding validation", fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(embedding)))
	}

	types, domain, wellID, mnemonic := filterArgs(filter)
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_nodes_by_similarity($1, $2, $3, $4, $5, $6)`,
		pgvector.NewVector(embedding),
		limit,
		types,
		domain,
		wellID,
		mnemonic,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var hits []model.SearchHit
	for rows.Next() {
		var hit model.SearchHit
		var nodeType string
		err := rows.Scan(
			&hit.ID,
			&nodeType,
			&hit.Attributes,
			&hit.Score,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		hit.Type = model.NodeType(nodeType)
		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}

// CountDocuments returns the exact number of stored nodes matching the filter
func (h *NodesDBHandler) CountDocuments(ctx context.Context, filter *model.SearchFilter) (int, error) {
	types, domain, wellID, mnemonic := filterArgs(filter)

	var count int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT count_nodes($1, $2, $3, $4)`,
		types,
		domain,
		wellID,
		mnemonic,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*model.Node, error) {
	var id, nodeType, domain string
	var attributes model.Metadata
	var createdAt time.Time

	err := row.Scan(
		&id,
		&nodeType,
		&domain,
		&attributes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	node, err := model.NewNode(id, model.NodeType(nodeType), attributes)
	if err != nil {
		return nil, err
	}
	node.Domain = model.Domain(domain)

	return node, nil
}

// filterArgs converts a filter into the nullable SQL function arguments
func filterArgs(filter *model.SearchFilter) (any, any, any, any) {
	if filter.IsEmpty() {
		return nil, nil, nil, nil
	}

	var types any
	if len(filter.NodeTypes) > 0 {
		values := make([]string, len(filter.NodeTypes))
		for i, t := range filter.NodeTypes {
			values[i] = string(t)
		}
		types = pq.Array(values)
	}

	return types, nullString(string(filter.Domain)), nullString(filter.WellID), nullString(strings.ToUpper(filter.Mnemonic))
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
