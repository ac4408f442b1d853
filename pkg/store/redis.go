package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps every model in a hash and the model names in a set
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the server at url and selects database db
func NewRedisStore(url string, db int, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %v", err)
	}
	opt.DB = db
	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis connection failed: %v", err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) indexKey() string {
	return fmt.Sprintf("%s:models", s.prefix)
}

func (s *RedisStore) modelKey(name string) string {
	return fmt.Sprintf("%s:model:%s", s.prefix, name)
}

// Put stores m, replacing a model of the same name
func (s *RedisStore) Put(ctx context.Context, m *Model) error {
	if err := CheckName(m.Name); err != nil {
		return err
	}
	key := s.modelKey(m.Name)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"classifier_type", m.ClassifierType,
		"class_attribute", m.ClassAttribute,
		"attributes", m.Attributes,
		"tuples", strconv.FormatFloat(m.Tuples, 'g', -1, 64),
		"generation_date", m.GenerationDate.UnixNano(),
		"description", m.Description,
	)
	pipe.SAdd(ctx, s.indexKey(), m.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "could not store model %s", m.Name)
	}
	return nil
}

// Get returns the model called name
func (s *RedisStore) Get(ctx context.Context, name string) (*Model, error) {
	fields, err := s.client.HGetAll(ctx, s.modelKey(name)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "could not read model %s", name)
	}
	if len(fields) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	attributes, _ := strconv.Atoi(fields["attributes"])
	tuples, _ := strconv.ParseFloat(fields["tuples"], 64)
	generated, _ := strconv.ParseInt(fields["generation_date"], 10, 64)
	return &Model{
		Name:           name,
		ClassifierType: fields["classifier_type"],
		ClassAttribute: fields["class_attribute"],
		Attributes:     attributes,
		Tuples:         tuples,
		GenerationDate: time.Unix(0, generated).UTC(),
		Description:    fields["description"],
	}, nil
}

// List returns all models sorted by name
func (s *RedisStore) List(ctx context.Context) ([]*Model, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "could not list models")
	}
	sort.Strings(names)
	models := make([]*Model, 0, len(names))
	for _, name := range names {
		m, err := s.Get(ctx, name)
		if errors.Cause(err) == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Delete removes the model called name
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	n, err := s.client.Del(ctx, s.modelKey(name)).Result()
	if err != nil {
		return errors.Wrapf(err, "could not delete model %s", name)
	}
	s.client.SRem(ctx, s.indexKey(), name)
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s", name)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
