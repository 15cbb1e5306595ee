package mongo

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/fsmkit/pkg/store"
)

var (
	_ store.Store      = (*Storage)(nil)
	_ store.Batcher    = (*Storage)(nil)
	_ store.Configured = (*Storage)(nil)
)

const (
	EntriesCollection   = "fsm_entries"
	InstancesCollection = "fsm_instances"
)

type entryDoc struct {
	Value []byte `bson:"value"`
}

type instanceDoc struct {
	ExpiresAt *time.Time `bson:"expires_at"`
}

// Storage implements store.Store on two collections. Every entry is a document
// in fsm_entries keyed by {tier, scope, key}; scope is the instance id for
// Instance entries and empty otherwise. The shared instance lifetime is kept
// in fsm_instances.
//
// Apply runs in a multi-document transaction when the deployment is a replica
// set or a sharded cluster. A standalone server has no transactions; there
// Apply issues a plain ordered BulkWrite and is only all-or-nothing for
// batches rejected by CheckOps.
type Storage struct {
	entries   *mongo.Collection
	instances *mongo.Collection
	cfg       store.Config
	now       func() time.Time

	txMu      sync.Mutex
	txChecked bool
	txOK      bool
}

// NewStorage uses the fsm collections of db.
func NewStorage(db *mongo.Database, cfg store.Config) *Storage {
	return &Storage{
		entries:   db.Collection(EntriesCollection),
		instances: db.Collection(InstancesCollection),
		cfg:       cfg.WithDefaults(),
		now:       time.Now,
	}
}

// EnsureIndexes creates the TTL index that lets the server reap expired
// Temporary and Persistent entries.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Config returns the lifetime settings in use.
func (s *Storage) Config() store.Config {
	return s.cfg
}

func (s *Storage) Get(ctx context.Context, tier store.Tier, key []byte) ([]byte, bool, error) {
	if err := store.CheckKey(tier, key); err != nil {
		return nil, false, err
	}
	if expired, err := s.instanceExpired(ctx, tier); err != nil || expired {
		return nil, false, err
	}

	var doc entryDoc
	err := s.entries.FindOne(ctx, s.liveFilter(tier, key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable(err)
	}
	return doc.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, tier store.Tier, key, value []byte) error {
	if err := store.CheckKey(tier, key); err != nil {
		return err
	}
	if tier == store.Instance {
		if err := s.startInstance(ctx); err != nil {
			return err
		}
	}

	_, err := s.entries.UpdateOne(ctx, s.idFilter(tier, key), s.setUpdate(tier, value), options.UpdateOne().SetUpsert(true))
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) Has(ctx context.Context, tier store.Tier, key []byte) (bool, error) {
	if err := store.CheckKey(tier, key); err != nil {
		return false, err
	}
	if expired, err := s.instanceExpired(ctx, tier); err != nil || expired {
		return false, err
	}

	n, err := s.entries.CountDocuments(ctx, s.liveFilter(tier, key), options.Count().SetLimit(1))
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *Storage) Remove(ctx context.Context, tier store.Tier, key []byte) error {
	if err := store.CheckKey(tier, key); err != nil {
		return err
	}
	if _, err := s.entries.DeleteOne(ctx, s.idFilter(tier, key)); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) ExtendTTL(ctx context.Context, tier store.Tier, key []byte, threshold, extendTo time.Duration) error {
	if !tier.Valid() {
		return store.ErrInvalidTier
	}

	coll, filter, update := s.extendUpdate(tier, key, threshold, extendTo)
	if _, err := coll.UpdateOne(ctx, filter, update); err != nil {
		return unavailable(err)
	}
	return nil
}

// Apply writes ops in order with a single BulkWrite against fsm_entries.
// Instance lifetime bookkeeping runs before and after the bulk write, inside
// the same transaction when the deployment supports one.
func (s *Storage) Apply(ctx context.Context, ops []store.Op) error {
	if err := store.CheckOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.Transactional(ctx)
	if err != nil {
		return err
	}
	if !tx {
		return s.apply(ctx, ops)
	}

	sess, err := s.entries.Database().Client().StartSession()
	if err != nil {
		return unavailable(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, s.apply(ctx, ops)
	})
	if err != nil && !store.IsUnavailable(err) {
		return unavailable(err)
	}
	return err
}

// Transactional reports whether Apply runs in a transaction. The answer is
// checked with the hello command once and cached.
func (s *Storage) Transactional(ctx context.Context) (bool, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.txChecked {
		return s.txOK, nil
	}

	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := s.entries.Database().RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		return false, unavailable(err)
	}
	s.txOK = hello.SetName != "" || hello.Msg == "isdbgrid"
	s.txChecked = true
	return s.txOK, nil
}

func (s *Storage) apply(ctx context.Context, ops []store.Op) error {
	models := make([]mongo.WriteModel, 0, len(ops))
	var instanceExtends []store.Op
	startInstance := false

	for _, op := range ops {
		switch op.Kind {
		case store.OpSet:
			if op.Tier == store.Instance {
				startInstance = true
			}
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(s.idFilter(op.Tier, op.Key)).
				SetUpdate(s.setUpdate(op.Tier, op.Value)).
				SetUpsert(true))
		case store.OpRemove:
			models = append(models, mongo.NewDeleteOneModel().SetFilter(s.idFilter(op.Tier, op.Key)))
		case store.OpExtendTTL:
			if op.Tier == store.Instance {
				instanceExtends = append(instanceExtends, op)
				continue
			}
			_, filter, update := s.extendUpdate(op.Tier, op.Key, op.Threshold, op.ExtendTo)
			models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update))
		}
	}

	if startInstance {
		if err := s.startInstance(ctx); err != nil {
			return err
		}
	}
	if len(models) > 0 {
		if _, err := s.entries.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
			return unavailable(err)
		}
	}
	for _, op := range instanceExtends {
		if err := s.ExtendTTL(ctx, op.Tier, op.Key, op.Threshold, op.ExtendTo); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) scope(tier store.Tier) string {
	if tier == store.Instance {
		return s.cfg.InstanceID
	}
	return ""
}

func (s *Storage) idFilter(tier store.Tier, key []byte) bson.D {
	return bson.D{{Key: "_id", Value: bson.D{
		{Key: "tier", Value: int32(tier)},
		{Key: "scope", Value: s.scope(tier)},
		{Key: "key", Value: key},
	}}}
}

func (s *Storage) liveFilter(tier store.Tier, key []byte) bson.D {
	return append(s.idFilter(tier, key), bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "expires_at", Value: nil}},
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now()}}}},
	}})
}

// setUpdate is an update pipeline: a live entry keeps its deadline, a new or
// expired one gets the tier TTL.
func (s *Storage) setUpdate(tier store.Tier, value []byte) mongo.Pipeline {
	now := s.now()

	var fresh any
	if ttl := s.cfg.TTL(tier); ttl > 0 && tier != store.Instance {
		fresh = now.Add(ttl)
	}

	expiresAt := bson.D{{Key: "$switch", Value: bson.D{
		{Key: "branches", Value: bson.A{
			bson.D{
				{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$value"}}, "missing"}}}},
				{Key: "then", Value: fresh},
			},
			bson.D{
				{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$expires_at", nil}}}, nil}}}},
				{Key: "then", Value: nil},
			},
			bson.D{
				{Key: "case", Value: bson.D{{Key: "$gt", Value: bson.A{"$expires_at", now}}}},
				{Key: "then", Value: "$expires_at"},
			},
		}},
		{Key: "default", Value: fresh},
	}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "expires_at", Value: expiresAt},
			{Key: "value", Value: bson.D{{Key: "$literal", Value: value}}},
		}}},
	}
}

func (s *Storage) extendUpdate(tier store.Tier, key []byte, threshold, extendTo time.Duration) (*mongo.Collection, bson.D, bson.D) {
	now := s.now()
	window := bson.D{
		{Key: "$gt", Value: now},
		{Key: "$lt", Value: now.Add(threshold)},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "expires_at", Value: now.Add(extendTo)}}}}

	if tier == store.Instance {
		return s.instances, bson.D{
			{Key: "_id", Value: s.cfg.InstanceID},
			{Key: "expires_at", Value: window},
		}, update
	}
	return s.entries, append(s.idFilter(tier, key), bson.E{Key: "expires_at", Value: window}), update
}

func (s *Storage) instanceExpired(ctx context.Context, tier store.Tier) (bool, error) {
	if tier != store.Instance {
		return false, nil
	}

	var doc instanceDoc
	err := s.instances.FindOne(ctx, bson.D{{Key: "_id", Value: s.cfg.InstanceID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, unavailable(err)
	}
	return doc.ExpiresAt != nil && !s.now().Before(*doc.ExpiresAt), nil
}

// startInstance clears an expired instance and opens a new lifetime when
// none is running.
func (s *Storage) startInstance(ctx context.Context) error {
	expired, err := s.instanceExpired(ctx, store.Instance)
	if err != nil {
		return err
	}
	if expired {
		scope := bson.D{{Key: "_id.tier", Value: int32(store.Instance)}, {Key: "_id.scope", Value: s.cfg.InstanceID}}
		if _, err := s.entries.DeleteMany(ctx, scope); err != nil {
			return unavailable(err)
		}
		if _, err := s.instances.DeleteOne(ctx, bson.D{{Key: "_id", Value: s.cfg.InstanceID}}); err != nil {
			return unavailable(err)
		}
	}

	var expiresAt any
	if ttl := s.cfg.InstanceTTL; ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	_, err = s.instances.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: s.cfg.InstanceID}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "expires_at", Value: expiresAt}}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return errors.Join(store.ErrStoreUnavailable, err)
}
