// Package redis connects to Redis and provides a store.Store backend on top
// of it.
//
// Connect retries until the server answers a PING and Storage maps the three
// storage tiers onto keys:
//
//	<prefix>:t:<key>          temporary entries, string keys with PEXPIRE
//	<prefix>:p:<key>          persistent entries, string keys
//	<prefix>:i:<instance id>  one hash holding every instance entry
//
// Writes that must keep an existing TTL run as small Lua scripts, and
// Storage.Apply wraps a batch in MULTI/EXEC, so an overlay commit lands
// atomically.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	st := redis.NewStorageWithConfig(client, cfg, redis.WithStoreConfig(storeCfg))
//
// Storage.Healthcheck pings the server and preloads the scripts.
// Configuration is read from the environment with github.com/caarlos0/env.
// Connection errors wrap the package sentinels with errors.Join; storage I/O
// failures wrap store.ErrStoreUnavailable.
package redis
