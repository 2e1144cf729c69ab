package auth

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/google/uuid"
    redis "github.com/redis/go-redis/v9"
)

// RedisStore implements SessionStore on Redis with a native key TTL, so the
// inactivity window survives process restarts and is shared across replicas.
type RedisStore struct {
    rdb *redis.Client
    ttl time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, err }
    if ttl <= 0 { ttl = 8 * time.Hour }
    return &RedisStore{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (s *RedisStore) Create(ctx context.Context, email, trackerCookie string) (Session, error) {
    now := time.Now()
    sess := Session{ID: uuid.New().String(), Email: email, TrackerCookie: trackerCookie, CreatedAt: now, LastSeen: now}
    data, err := json.Marshal(sess)
    if err != nil { return Session{}, err }
    if err := s.rdb.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil { return Session{}, err }
    return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
    data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
    if errors.Is(err, redis.Nil) { return Session{}, ErrNoSession }
    if err != nil { return Session{}, err }
    var sess Session
    if err := json.Unmarshal(data, &sess); err != nil { return Session{}, err }
    return sess, nil
}

func (s *RedisStore) Touch(ctx context.Context, id string) error {
    ok, err := s.rdb.Expire(ctx, s.key(id), s.ttl).Result()
    if err != nil { return err }
    if !ok { return ErrNoSession }
    return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
    return s.rdb.Del(ctx, s.key(id)).Err()
}

func (s *RedisStore) key(id string) string { return "session:" + id }
