package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmaltsev/tasklist/internal/dbx"
	"github.com/dmaltsev/tasklist/internal/server/repositories/todos"
	"github.com/dmaltsev/tasklist/internal/server/repositories/tokens"
	"github.com/dmaltsev/tasklist/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Todos(db dbx.DBTX) todos.Repository
}
