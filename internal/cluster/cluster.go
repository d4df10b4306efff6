// Package cluster fans a single logical cache out across N independently
// mmap'd engine instances, routing each key to exactly one member by a
// shared SipHash seed (SPEC_FULL.md §4.I). This mirrors sneller's tenant
// dcache sharding-by-hash shape, adapted here to a fixed local member count
// (rather than a remote tenant set) with github.com/google/uuid tagging
// each member purely for log correlation.
package cluster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kfabryczny/ybc/internal/engine"
	"github.com/kfabryczny/ybc/pkg/fingerprint"
	"github.com/kfabryczny/ybc/pkg/options"
)

// Member is one shard of the cluster: an engine plus its log-correlation id.
type Member struct {
	ID     string
	Engine *engine.Engine
}

// Cluster owns N cache engines and routes keys to one of them by fingerprint.
type Cluster struct {
	members []Member
	seed    fingerprint.Seed
	log     *zap.SugaredLogger
}

// Config configures a Cluster. PerMember supplies the per-member options,
// indexed 0..N-1; member i's IndexFile/DataFile should already be distinct
// paths (the cluster does not namespace them).
type Config struct {
	PerMember []options.Options
	Logger    *zap.SugaredLogger
	Force     bool
}

// Open opens every member engine (each keeps its own index seed) and fixes a
// single cluster-wide routing seed, so that GetCache(key) routes consistently
// regardless of any member's own index seed. Open is all-or-nothing: if
// any member fails, already-opened members are closed and the error from
// the failing member is returned.
func Open(ctx context.Context, cfg Config) (*Cluster, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if len(cfg.PerMember) == 0 {
		return nil, fmt.Errorf("cluster: at least one member is required")
	}

	seed := fingerprint.Seed{K0: uint64(len(cfg.PerMember)) ^ 0x9e3779b97f4a7c15, K1: 0xbf58476d1ce4e5b9}

	c := &Cluster{seed: seed, log: log}
	for i, opts := range cfg.PerMember {
		id := uuid.New().String()
		e, err := engine.New(ctx, engine.Config{Options: opts, Logger: log.With("member", id), Force: cfg.Force})
		if err != nil {
			log.Warnw("cluster member failed to open, closing already-opened members", "index", i, "member", id, "error", err)
			c.closeAll()
			return nil, err
		}
		log.Infow("cluster member opened", "index", i, "member", id)
		c.members = append(c.members, Member{ID: id, Engine: e})
	}

	return c, nil
}

// Len reports the number of members in the cluster.
func (c *Cluster) Len() int { return len(c.members) }

// GetCache returns the member key routes to, the same SipHash fingerprint
// family the index table itself uses (SPEC_FULL.md §4.B), keyed here by the
// cluster's single shared seed rather than any one member's own index seed.
func (c *Cluster) GetCache(key []byte) *Member {
	fp := fingerprint.Of(c.seed, key)
	i := uint64(fp) % uint64(len(c.members))
	return &c.members[i]
}

func (c *Cluster) closeAll() {
	for _, m := range c.members {
		if err := m.Engine.Close(); err != nil {
			c.log.Warnw("error closing cluster member during rollback", "member", m.ID, "error", err)
		}
	}
	c.members = nil
}

// Clear fans out Clear to every member, logging each member's outcome, and
// returns the first error encountered (if any) after attempting all members.
func (c *Cluster) Clear() error {
	var firstErr error
	for _, m := range c.members {
		if err := m.Engine.Clear(); err != nil {
			c.log.Warnw("cluster member clear failed", "member", m.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.log.Infow("cluster member cleared", "member", m.ID)
	}
	return firstErr
}

// Close fans out Close to every member, logging each member's outcome, and
// returns the first error encountered (if any) after attempting all members.
func (c *Cluster) Close() error {
	var firstErr error
	for _, m := range c.members {
		if err := m.Engine.Close(); err != nil {
			c.log.Warnw("cluster member close failed", "member", m.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.log.Infow("cluster member closed", "member", m.ID)
	}
	return firstErr
}
