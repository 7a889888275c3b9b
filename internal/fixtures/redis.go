package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"go-jobspider/internal/models"
)

// RedisStore keeps captures in Redis so several runners share them.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := ping(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// ping closes client when the server does not answer.
func ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// NewRedisStore stores keys under prefix; ttl 0 keeps them forever.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "spider:fixtures"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (rs *RedisStore) listingsKey(page int) string {
	if page > 0 {
		return rs.prefix + ":listings:page:" + strconv.Itoa(page)
	}
	return rs.prefix + ":listings"
}

func (rs *RedisStore) detailsKey(jobID, kind string) string {
	return rs.prefix + ":details:" + kind + ":" + safeKey(jobID)
}

func (rs *RedisStore) LoadListings(ctx context.Context) ([]models.JobListing, error) {
	var listings []models.JobListing
	ok, err := rs.get(ctx, rs.listingsKey(0), &listings)
	if err != nil || !ok {
		return nil, err
	}
	if listings == nil {
		listings = []models.JobListing{}
	}
	return listings, nil
}

func (rs *RedisStore) SaveListings(ctx context.Context, listings []models.JobListing, page int) error {
	return rs.set(ctx, rs.listingsKey(page), listings)
}

func (rs *RedisStore) LoadDetails(ctx context.Context, jobID string) (*models.JobDetails, error) {
	if safeKey(jobID) == "" {
		return nil, nil
	}
	var details models.JobDetails
	ok, err := rs.get(ctx, rs.detailsKey(jobID, "json"), &details)
	if err != nil || !ok {
		return nil, err
	}
	return &details, nil
}

func (rs *RedisStore) SaveDetails(ctx context.Context, listing models.JobListing, rawHTML string, raw models.RawDetails) error {
	id := listing.Key()
	if safeKey(id) == "" {
		return errors.New("listing has no id")
	}
	details, err := json.Marshal(raw.JobDetails)
	if err != nil {
		return err
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	_, err = rs.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rs.detailsKey(id, "json"), details, rs.ttl)
		pipe.Set(ctx, rs.detailsKey(id, "raw"), rawJSON, rs.ttl)
		pipe.Set(ctx, rs.detailsKey(id, "html"), rawHTML, rs.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save details %s: %w", id, err)
	}
	return nil
}

func (rs *RedisStore) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := rs.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return true, nil
}

func (rs *RedisStore) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := rs.rdb.Set(ctx, key, data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
