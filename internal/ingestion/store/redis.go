package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgerror"
)

// DefaultTTL bounds how long finished jobs stay queryable.
const DefaultTTL = 24 * time.Hour

const maxUpdateAttempts = 100

// RedisStore keeps each job as a JSON string and its failures as a list.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "goweave:ingestion"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) jobKey(id string) string {
	return s.prefix + ":job:" + id
}

func (s *RedisStore) failuresKey(id string) string {
	return s.prefix + ":job:" + id + ":failures"
}

func (s *RedisStore) CreateJob(ctx context.Context, job entity.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.jobKey(job.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	if !ok {
		return pkgerror.NewBusiness("job already exists", pkgerror.CodeConflict)
	}

	return nil
}

// UpdateJob applies fn inside an optimistic WATCH/MULTI transaction.
func (s *RedisStore) UpdateJob(ctx context.Context, jobID string, fn func(job *entity.Job)) error {
	key := s.jobKey(jobID)

	txf := func(tx *redis.Tx) error {
		job, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}

		fn(&job)

		data, err := json.Marshal(job)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("update job %s: too many concurrent updates", jobID)
}

func (s *RedisStore) AddFailure(ctx context.Context, jobID string, failure entity.FailedRow) error {
	exists, err := s.client.Exists(ctx, s.jobKey(jobID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return pkgerror.ErrNotFound
	}

	data, err := json.Marshal(failure)
	if err != nil {
		return err
	}

	key := s.failuresKey(jobID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) GetJob(ctx context.Context, jobID string) (entity.Job, error) {
	return s.load(ctx, s.client, s.jobKey(jobID))
}

func (s *RedisStore) ListFailures(ctx context.Context, jobID string, page, pageSize int) ([]entity.FailedRow, int, entity.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, 0, entity.Job{}, err
	}

	if page < 1 || pageSize < 1 || page > math.MaxInt/pageSize {
		return nil, 0, entity.Job{}, fmt.Errorf("page %d of size %d out of range", page, pageSize)
	}

	key := s.failuresKey(jobID)
	start := int64(page-1) * int64(pageSize)
	stop := start + int64(pageSize) - 1

	var (
		lenCmd   *redis.IntCmd
		rangeCmd *redis.StringSliceCmd
	)
	if _, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		lenCmd = pipe.LLen(ctx, key)
		rangeCmd = pipe.LRange(ctx, key, start, stop)
		return nil
	}); err != nil {
		return nil, 0, entity.Job{}, err
	}

	raw := rangeCmd.Val()
	items := make([]entity.FailedRow, 0, len(raw))
	for _, v := range raw {
		var f entity.FailedRow
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			return nil, 0, entity.Job{}, fmt.Errorf("decode failure of job %s: %w", jobID, err)
		}
		items = append(items, f)
	}

	return items, int(lenCmd.Val()), job, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, c getter, key string) (entity.Job, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.Job{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.Job{}, err
	}

	var job entity.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return entity.Job{}, fmt.Errorf("decode job: %w", err)
	}

	return job, nil
}
