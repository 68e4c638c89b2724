package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// noRole marks a cached user who exists but has no role.
const noRole = "-"

type RoleSource interface {
	RoleByEmail(ctx context.Context, email string) (string, bool, error)
}

// RoleCache puts redis in front of a RoleSource. Only existing users are
// cached; unknown emails always reach the source. With a nil client every
// call passes through.
type RoleCache struct {
	source RoleSource
	rdb    *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRoleCache(source RoleSource, rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RoleCache {
	return &RoleCache{source: source, rdb: rdb, ttl: ttl, log: log}
}

// NewRedisClient connects to addr and checks it answers.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

func roleKey(email string) string {
	return "role:" + email
}

func (c *RoleCache) RoleByEmail(ctx context.Context, email string) (string, bool, error) {
	if c.rdb == nil {
		return c.source.RoleByEmail(ctx, email)
	}
	cached, err := c.rdb.Get(ctx, roleKey(email)).Result()
	switch {
	case err == nil:
		if cached == noRole {
			return "", true, nil
		}
		return cached, true, nil
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).Warn("role cache read failed")
	}

	role, found, err := c.source.RoleByEmail(ctx, email)
	if err != nil || !found {
		return role, found, err
	}
	value := role
	if value == "" {
		value = noRole
	}
	if err := c.rdb.Set(ctx, roleKey(email), value, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("role cache write failed")
	}
	return role, true, nil
}

// Invalidate drops the cached role for email. Call it after any role change.
func (c *RoleCache) Invalidate(ctx context.Context, email string) {
	if c.rdb == nil || email == "" {
		return
	}
	if err := c.rdb.Del(ctx, roleKey(email)).Err(); err != nil {
		c.log.WithError(err).WithField("email", email).Warn("role cache invalidate failed")
	}
}
