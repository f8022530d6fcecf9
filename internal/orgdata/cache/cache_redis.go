// Package cache decorates the org-data gateway with a Redis snapshot
// cache. Profile and team reads dominate gateway traffic during alternate
// search and simulation runs; caching them keeps repeated decision calls
// from hammering the directory.
//
// Conflict-relevant reads (incidents, tasks) intentionally bypass the
// cache: a stale incident could approve a leave that should hard-block.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"crewops/internal/orgdata"
	"crewops/internal/orgdata/metrics"
	"crewops/pkg/domain"
)

// RedisCache wraps an inner gateway with TTL-bounded snapshot caching.
type RedisCache struct {
	inner   orgdata.Gateway
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds a caching gateway around inner. The caller decides whether a
// cache is configured at all; pass-through wiring belongs in main.
func New(inner orgdata.Gateway, client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *metrics.Metrics) *RedisCache {
	return &RedisCache{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

func profileKey(employeeID domain.EmployeeID) string {
	return "orgdata:profile:" + employeeID.String()
}

func teamKey(teamID domain.TeamID) string {
	return "orgdata:team:" + teamID.String()
}

func (c *RedisCache) EmployeeProfile(ctx context.Context, employeeID domain.EmployeeID) (orgdata.SkillProfile, error) {
	var cached orgdata.SkillProfile
	if c.lookup(ctx, "profile", profileKey(employeeID), &cached) {
		return cached, nil
	}
	profile, err := c.inner.EmployeeProfile(ctx, employeeID)
	if err != nil {
		return orgdata.SkillProfile{}, err
	}
	c.save(ctx, profileKey(employeeID), profile)
	return profile, nil
}

func (c *RedisCache) TeamSnapshot(ctx context.Context, teamID domain.TeamID) ([]orgdata.TeamMember, error) {
	var cached []orgdata.TeamMember
	if c.lookup(ctx, "team", teamKey(teamID), &cached) {
		return cached, nil
	}
	members, err := c.inner.TeamSnapshot(ctx, teamID)
	if err != nil {
		return nil, err
	}
	c.save(ctx, teamKey(teamID), members)
	return members, nil
}

// lookup fills dest from the cache, reporting whether it hit. Cache
// failures degrade to misses; the gateway must keep answering when Redis
// is down.
func (c *RedisCache) lookup(ctx context.Context, query, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "org snapshot cache read failed", "key", key, "error", err)
		}
		c.metrics.RecordMiss(query)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.WarnContext(ctx, "org snapshot cache entry corrupt", "key", key, "error", err)
		c.metrics.RecordMiss(query)
		return false
	}
	c.metrics.RecordHit(query)
	return true
}

func (c *RedisCache) save(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "org snapshot cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "org snapshot cache write failed", "key", key, "error", err)
	}
}

// The remaining reads delegate straight to the inner gateway.

func (c *RedisCache) EmployeeIncidents(ctx context.Context, employeeID domain.EmployeeID) ([]orgdata.Incident, error) {
	return c.inner.EmployeeIncidents(ctx, employeeID)
}

func (c *RedisCache) EmployeeTasks(ctx context.Context, employeeID domain.EmployeeID, window orgdata.DateRange) ([]orgdata.Task, error) {
	return c.inner.EmployeeTasks(ctx, employeeID, window)
}

func (c *RedisCache) ProjectRequiredSkills(ctx context.Context, projectID domain.ProjectID) ([]orgdata.RequiredSkill, error) {
	return c.inner.ProjectRequiredSkills(ctx, projectID)
}

func (c *RedisCache) ActiveEmployees(ctx context.Context) ([]domain.EmployeeID, error) {
	return c.inner.ActiveEmployees(ctx)
}

func (c *RedisCache) EmployeesOutsideTeam(ctx context.Context, teamID domain.TeamID, skill string, maxWorkload float64) ([]domain.EmployeeID, error) {
	return c.inner.EmployeesOutsideTeam(ctx, teamID, skill, maxWorkload)
}
