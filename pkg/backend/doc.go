// Package backend opens the store.Store selected by configuration.
//
// Config.Kind picks memory, redis, postgres or mongo. Driver settings come
// from the matching package config (redis.Config, pg.Config, mongo.Config)
// and are passed to Open as options; FromEnv loads everything from the
// environment with pkg/config:
//
//	b, err := backend.FromEnv(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer b.Close(ctx)
//
//	tr := statemachine.NewTransition(region, state)
//	err = tr.Run(ctx, b.Store, args, body)
//
// A positive FSM_CACHE_SIZE wraps the store in cache.Store. Postgres
// migrations and Mongo indexes are applied on open unless FSM_MIGRATE=false.
package backend
