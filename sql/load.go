package sql

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/siherrmann/wellgraph/helper"
)

//go:embed init.sql
var initSQL string

//go:embed nodes.sql
var nodesSQL string

//go:embed edges.sql
var edgesSQL string

// Function lists for verification
var NodesFunctions = []string{
	"init_nodes",
	"insert_node",
	"select_node",
	"select_all_nodes",
	"select_nodes_by_similarity",
	"count_nodes",
	"delete_node",
}

var EdgesFunctions = []string{
	"init_edges",
	"insert_edge",
	"select_all_edges",
	"select_edges_of_node",
	"delete_edge",
}

// Init creates the database extensions
func Init(db *helper.Database) error {
	_, err := db.Instance.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	db.Logger.Info("Database extensions initialized")
	return nil
}

// LoadNodesSql loads the node SQL functions
func LoadNodesSql(db *helper.Database, force bool) error {
	return load(db, "nodes", nodesSQL, NodesFunctions, force)
}

// LoadEdgesSql loads the edge SQL functions
func LoadEdgesSql(db *helper.Database, force bool) error {
	return load(db, "edges", edgesSQL, EdgesFunctions, force)
}

// LoadAllSql creates the extensions and loads all SQL functions
func LoadAllSql(db *helper.Database, force bool) error {
	if err := Init(db); err != nil {
		return err
	}
	if err := LoadNodesSql(db, force); err != nil {
		return err
	}
	return LoadEdgesSql(db, force)
}

// load executes the SQL script of a table unless all its functions already exist.
// With force the script is executed in any case.
func load(db *helper.Database, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := db.CheckFunctions(functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Instance.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := db.CheckFunctions(functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required %s SQL functions were created", name)
	}

	db.Logger.Info("SQL functions loaded", slog.String("table", name))
	return nil
}
