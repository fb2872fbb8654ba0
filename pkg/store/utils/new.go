// Package storeutils is the store utility package
package storeutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/store"
	"github.com/scrollpedia/scrollfeed/pkg/store/inmemory"
	"github.com/scrollpedia/scrollfeed/pkg/store/postgres"
	"github.com/scrollpedia/scrollfeed/pkg/store/sqlitevec"
)

type NewStoreOpts struct {
	Provider    string
	SQLitePath  string
	PostgresURL string
	Dimensions  uint
	Logger      *zap.Logger
}

func NewStore(ctx context.Context, o *NewStoreOpts) (store.Store, error) {
	switch o.Provider {
	case "memory":
		return inmemory.NewStore(), nil
	case "sqlite":
		return sqlitevec.NewStore(sqlitevec.Config{
			DBPath:     o.SQLitePath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "postgres":
		return postgres.NewStore(ctx, postgres.Config{
			ConnStr:    o.PostgresURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", o.Provider)
	}
}
