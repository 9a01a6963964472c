package encounters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/encounterdoc"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	encounterKeyPrefix = "encounter:"
	encounterIndexKey  = "encounters"
)

// Data is the serialized form of an encounter in Redis
type Data struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	SkipUnconscious bool                  `json:"skip_unconscious"`
	CombatLog       []string              `json:"combat_log"`
	Document        encounterdoc.Document `json:"document"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// RedisRepoConfig holds the dependencies of the Redis repository
type RedisRepoConfig struct {
	Client       redis.UniversalClient
	TimeProvider TimeProvider
}

type redisRepo struct {
	client       redis.UniversalClient
	timeProvider TimeProvider
}

// NewRedisRepository creates a Redis-backed encounter repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("redis client is required")
	}

	timeProvider := cfg.TimeProvider
	if timeProvider == nil {
		timeProvider = NewRealTimeProvider()
	}

	return &redisRepo{
		client:       cfg.Client,
		timeProvider: timeProvider,
	}
}

// NewRedis creates a Redis-backed encounter repository using the wall clock
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{Client: client})
}

func encounterKey(id string) string {
	return encounterKeyPrefix + id
}

func (r *redisRepo) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}
	if encounter.ID == "" {
		return dnderr.InvalidArgument("encounter ID is required")
	}

	exists, err := r.client.Exists(ctx, encounterKey(encounter.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check encounter in Redis: %w", err)
	}
	if exists > 0 {
		return dnderr.AlreadyExistsf("encounter with ID %s already exists", encounter.ID)
	}

	now := r.timeProvider.Now()
	encounter.CreatedAt = now
	encounter.UpdatedAt = now

	return r.set(ctx, encounter)
}

func (r *redisRepo) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	if id == "" {
		return nil, dnderr.InvalidArgument("encounter ID is required")
	}

	jsonData, err := r.client.Get(ctx, encounterKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, encounterNotFound(id)
		}
		return nil, fmt.Errorf("failed to get encounter from Redis: %w", err)
	}

	var data Data
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeValidation, "failed to unmarshal encounter data").
			WithMeta("encounter_id", id)
	}

	return fromData(&data)
}

func (r *redisRepo) Update(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}

	exists, err := r.client.Exists(ctx, encounterKey(encounter.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check encounter in Redis: %w", err)
	}
	if exists == 0 {
		return encounterNotFound(encounter.ID)
	}

	encounter.UpdatedAt = r.timeProvider.Now()

	return r.set(ctx, encounter)
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	del := pipe.Del(ctx, encounterKey(id))
	pipe.SRem(ctx, encounterIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete encounter from Redis: %w", err)
	}

	if del.Val() == 0 {
		return encounterNotFound(id)
	}
	return nil
}

func (r *redisRepo) List(ctx context.Context) ([]*combat.Encounter, error) {
	ids, err := r.client.SMembers(ctx, encounterIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get encounter index from Redis: %w", err)
	}

	var mu sync.Mutex
	out := make([]*combat.Encounter, 0, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			encounter, err := r.Get(ctx, id)
			if err != nil {
				if dnderr.IsNotFound(err) {
					// Index entry outlived its record
					return nil
				}
				return fmt.Errorf("failed to get encounter %s: %w", id, err)
			}
			mu.Lock()
			out = append(out, encounter)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(out, compareCreated)
	return out, nil
}

func (r *redisRepo) set(ctx context.Context, encounter *combat.Encounter) error {
	jsonData, err := json.Marshal(toData(encounter))
	if err != nil {
		return fmt.Errorf("failed to marshal encounter data: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, encounterKey(encounter.ID), string(jsonData), 0)
	pipe.SAdd(ctx, encounterIndexKey, encounter.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set encounter in Redis: %w", err)
	}

	return nil
}

func toData(encounter *combat.Encounter) *Data {
	return &Data{
		ID:              encounter.ID,
		Name:            encounter.Name,
		SkipUnconscious: encounter.SkipUnconscious,
		CombatLog:       encounter.CombatLog,
		Document:        encounterdoc.FromSnapshot(encounter.State),
		CreatedAt:       encounter.CreatedAt,
		UpdatedAt:       encounter.UpdatedAt,
	}
}

func fromData(data *Data) (*combat.Encounter, error) {
	state, err := data.Document.Snapshot()
	if err != nil {
		return nil, dnderr.Wrapf(err, "encounter %s has an invalid document", data.ID)
	}

	combatLog := data.CombatLog
	if combatLog == nil {
		combatLog = []string{}
	}

	return &combat.Encounter{
		ID:              data.ID,
		Name:            data.Name,
		SkipUnconscious: data.SkipUnconscious,
		State:           state,
		CombatLog:       combatLog,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}, nil
}
