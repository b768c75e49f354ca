package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKeyPrefix namespaces every key written by the tracker
	DefaultRedisKeyPrefix = "phone-registry:"

	// DefaultRedisTTL is how long a job record is kept after creation
	DefaultRedisTTL = 24 * time.Hour
)

// mutateScript applies a change to a job hash unless the job is terminal.
// Returns -1 when the job does not exist, 0 when it is terminal, 1 on update.
var mutateScript = redis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if not status then
  return -1
end
if status == "completed" or status == "failed" then
  return 0
end
if ARGV[1] == "incr" then
  redis.call("HINCRBY", KEYS[1], "processed", ARGV[2])
else
  for i = 2, #ARGV, 2 do
    redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
  end
end
return 1
`)

// RedisOption configures a RedisTracker
type RedisOption func(*RedisTracker)

// WithKeyPrefix sets the key namespace
func WithKeyPrefix(prefix string) RedisOption {
	return func(t *RedisTracker) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// WithTTL sets the job record lifetime
func WithTTL(ttl time.Duration) RedisOption {
	return func(t *RedisTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// RedisTracker stores each job as a hash and indexes jobs by start time in a
// sorted set. Records expire after the configured TTL.
type RedisTracker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Tracker = (*RedisTracker)(nil)

// NewRedisTracker creates a tracker on top of an existing client
func NewRedisTracker(client *redis.Client, opts ...RedisOption) *RedisTracker {
	t := &RedisTracker{
		client: client,
		prefix: DefaultRedisKeyPrefix,
		ttl:    DefaultRedisTTL,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewRedisClient parses redisURL and verifies connectivity
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (t *RedisTracker) jobKey(id string) string {
	return t.prefix + "job:" + id
}

func (t *RedisTracker) indexKey() string {
	return t.prefix + "jobs"
}

// Create registers a new in_progress job
func (t *RedisTracker) Create(ctx context.Context, kind Kind) (SyncJob, error) {
	if !kind.Valid() {
		return SyncJob{}, fmt.Errorf("unknown job kind %q", kind)
	}

	job := SyncJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusInProgress,
		StartedAt: time.Now().UTC(),
	}

	key := t.jobKey(job.ID)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"id", job.ID,
			"kind", string(job.Kind),
			"status", string(job.Status),
			"started_at", job.StartedAt.Format(time.RFC3339Nano),
			"processed", 0,
		)
		pipe.Expire(ctx, key, t.ttl)
		pipe.ZAdd(ctx, t.indexKey(), redis.Z{
			Score:  float64(job.StartedAt.UnixMicro()),
			Member: job.ID,
		})
		return nil
	})
	if err != nil {
		return SyncJob{}, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// MarkTotal records the number of countries to process
func (t *RedisTracker) MarkTotal(ctx context.Context, id string, total int) error {
	return t.mutate(ctx, id, "set", "total", strconv.Itoa(total))
}

// IncrementProcessed adds n to the processed counter
func (t *RedisTracker) IncrementProcessed(ctx context.Context, id string, n int) error {
	return t.mutate(ctx, id, "incr", strconv.Itoa(n))
}

// Complete marks the job completed
func (t *RedisTracker) Complete(ctx context.Context, id string) error {
	return t.mutate(ctx, id, "set",
		"status", string(StatusCompleted),
		"completed_at", time.Now().UTC().Format(time.RFC3339Nano))
}

// Fail marks the job failed
func (t *RedisTracker) Fail(ctx context.Context, id string, message string) error {
	return t.mutate(ctx, id, "set",
		"status", string(StatusFailed),
		"completed_at", time.Now().UTC().Format(time.RFC3339Nano),
		"error", message)
}

func (t *RedisTracker) mutate(ctx context.Context, id string, args ...any) error {
	res, err := mutateScript.Run(ctx, t.client, []string{t.jobKey(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	if res < 0 {
		return ErrJobNotFound
	}
	return nil
}

// Get returns the job or ErrJobNotFound
func (t *RedisTracker) Get(ctx context.Context, id string) (SyncJob, error) {
	fields, err := t.client.HGetAll(ctx, t.jobKey(id)).Result()
	if err != nil {
		return SyncJob{}, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	if len(fields) == 0 {
		return SyncJob{}, ErrJobNotFound
	}
	return decodeJob(fields)
}

// List returns up to limit jobs, newest first. Index entries whose record
// has expired are pruned.
func (t *RedisTracker) List(ctx context.Context, limit int) ([]SyncJob, error) {
	ids, err := t.client.ZRevRange(ctx, t.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]SyncJob, 0, min(len(ids), max(limit, 0)))
	var stale []any
	for _, id := range ids {
		if limit > 0 && len(result) >= limit {
			break
		}
		job, err := t.Get(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}

	if len(stale) > 0 {
		if err := t.client.ZRem(ctx, t.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired jobs: %w", err)
		}
	}
	return result, nil
}

func decodeJob(fields map[string]string) (SyncJob, error) {
	job := SyncJob{
		ID:     fields["id"],
		Kind:   Kind(fields["kind"]),
		Status: Status(fields["status"]),
		Error:  fields["error"],
	}

	startedAt, err := time.Parse(time.RFC3339Nano, fields["started_at"])
	if err != nil {
		return SyncJob{}, fmt.Errorf("invalid started_at for job %s: %w", job.ID, err)
	}
	job.StartedAt = startedAt

	if v := fields["completed_at"]; v != "" {
		completedAt, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return SyncJob{}, fmt.Errorf("invalid completed_at for job %s: %w", job.ID, err)
		}
		job.CompletedAt = &completedAt
	}

	if v := fields["processed"]; v != "" {
		processed, err := strconv.Atoi(v)
		if err != nil {
			return SyncJob{}, fmt.Errorf("invalid processed count for job %s: %w", job.ID, err)
		}
		job.Processed = processed
	}

	if v := fields["total"]; v != "" {
		total, err := strconv.Atoi(v)
		if err != nil {
			return SyncJob{}, fmt.Errorf("invalid total for job %s: %w", job.ID, err)
		}
		job.Total = &total
	}

	return job, nil
}
