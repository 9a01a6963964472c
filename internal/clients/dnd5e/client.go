package dnd5e

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds GetMonsters against the public API
const maxConcurrentFetches = 4

// monsterAPI is the part of the dnd5e-api client this package uses
type monsterAPI interface {
	GetMonster(key string) (*apiEntities.Monster, error)
}

type client struct {
	api monsterAPI
}

type Config struct {
	HttpClient *http.Client
	// Timeout applies when HttpClient is nil
	Timeout time.Duration
}

func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("config is required")
	}

	httpClient := cfg.HttpClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	dndClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: httpClient,
	})
	if err != nil {
		return nil, err
	}

	return &client{
		api: dndClient,
	}, nil
}

// Monster is the slice of an SRD stat block the tracker cares about
type Monster struct {
	Key             string
	Name            string
	Type            string
	ArmorClass      int
	HitPoints       int
	HitDice         string
	ChallengeRating float32
}

// MonsterKey turns a display name into an API key, e.g. "Giant Spider" -> "giant-spider"
func MonsterKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (c *client) GetMonster(ctx context.Context, key string) (*Monster, error) {
	if key == "" {
		return nil, dnderr.InvalidArgument("monster key is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	response, err := c.api.GetMonster(key)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to fetch monster %s", key)
	}
	if response == nil {
		return nil, dnderr.NotFoundf("monster %s not found", key).WithMeta("monster", key)
	}

	return apiToMonster(response), nil
}

func (c *client) GetMonsters(ctx context.Context, keys []string) ([]*Monster, error) {
	monsters := make([]*Monster, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			monster, err := c.GetMonster(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to get monster %s: %w", key, err)
			}
			monsters[i] = monster
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return monsters, nil
}

func apiToMonster(input *apiEntities.Monster) *Monster {
	if input == nil {
		return nil
	}

	return &Monster{
		Key:             input.Key,
		Name:            input.Name,
		Type:            input.Type,
		ArmorClass:      int(input.ArmorClass),
		HitPoints:       int(input.HitPoints),
		HitDice:         input.HitDice,
		ChallengeRating: float32(input.ChallengeRating),
	}
}
