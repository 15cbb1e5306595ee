// Package mongo connects to MongoDB and provides a store.Store backend on top
// of it.
//
// Entries live in the fsm_entries collection, keyed by {tier, scope, key}.
// Temporary and Persistent documents carry an expires_at date that reads
// honour immediately and a TTL index reaps later. Instance documents are
// scoped by instance id and share the lifetime recorded in fsm_instances.
//
// Storage.Apply commits a batch in a multi-document transaction on replica
// sets and sharded clusters. A standalone server cannot run transactions, so
// there a batch that fails on I/O may be partially applied.
//
// # Usage
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//	    return err
//	}
//	st := mongo.NewStorage(db, storeCfg)
//	if err := st.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
//
// Storage.Healthcheck pings the primary. Configuration is read from the
// environment via github.com/caarlos0/env.
// Connection failures wrap ErrConnectFailed; storage failures wrap
// store.ErrStoreUnavailable.
package mongo
