package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/wellgraph/helper"
	"github.com/siherrmann/wellgraph/model"
	loadSql "github.com/siherrmann/wellgraph/sql"
)

// EdgesDBHandlerFunctions defines the interface for edge database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(edge *model.Edge) error
	SelectAllEdges() ([]*model.Edge, error)
	SelectEdgesOfNode(nodeID string) ([]*model.Edge, error)
}

// EdgesDBHandler handles edge-related database operations.
// Edges reference nodes by id without foreign keys, the graph index drops
// edges whose endpoints are missing.
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table if it does not exist
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		return helper.NewError("init edges", err)
	}

	h.db.Logger.Info("Checked/created table edges")

	return nil
}

// InsertEdge inserts an edge, inserting an existing edge is a no-op
func (h *EdgesDBHandler) InsertEdge(edge *model.Edge) error {
	var id int
	var edgeType string
	err := h.db.Instance.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3)`,
		edge.SourceID,
		edge.TargetID,
		string(edge.Type),
	).Scan(
		&id,
		&edge.SourceID,
		&edge.TargetID,
		&edgeType,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	edge.Type = model.EdgeType(edgeType)

	return nil
}

// SelectAllEdges retrieves all edges in insertion order
func (h *EdgesDBHandler) SelectAllEdges() ([]*model.Edge, error) {
	return h.query(`SELECT * FROM select_all_edges()`)
}

// SelectEdgesOfNode retrieves the edges starting or ending at a node
func (h *EdgesDBHandler) SelectEdgesOfNode(nodeID string) ([]*model.Edge, error) {
	return h.query(`SELECT * FROM select_edges_of_node($1)`, nodeID)
}

func (h *EdgesDBHandler) query(query string, args ...any) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		var id int
		var edgeType string
		edge := &model.Edge{}

		err := rows.Scan(
			&id,
			&edge.SourceID,
			&edge.TargetID,
			&edgeType,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		edge.Type = model.EdgeType(edgeType)

		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}
