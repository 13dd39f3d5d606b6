package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/models"
	"github.com/go-redis/redis/v8"
)

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

const (
	mirrorDocPrefix = "mirror:product:"
	mirrorPriceZSet = "mirror:products:price"
)

// UpsertProduct writes the product document into the search mirror and keys
// it by price so range queries are cheap.
func (r *RedisRepository) UpsertProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, mirrorDocPrefix+p.ID.Hex(), data, 0)
	pipe.ZAdd(ctx, mirrorPriceZSet, &redis.Z{Score: p.Price, Member: p.ID.Hex()})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) DeleteProduct(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, mirrorDocPrefix+id)
	pipe.ZRem(ctx, mirrorPriceZSet, id)
	_, err := pipe.Exec(ctx)
	return err
}

// ProductQuery is the search surface of the mirror: optional case-insensitive
// name filter, optional price range, price sort, paging.
type ProductQuery struct {
	Name       string
	StartPrice *float64
	EndPrice   *float64
	Ascending  *bool
	Page       int
	PageSize   int
}

type ProductPage struct {
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Data       []models.Product `json:"data"`
}

func (r *RedisRepository) SearchProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if q.StartPrice != nil {
		rng.Min = strconv.FormatFloat(*q.StartPrice, 'f', -1, 64)
	}
	if q.EndPrice != nil {
		rng.Max = strconv.FormatFloat(*q.EndPrice, 'f', -1, 64)
	}

	var ids []string
	var err error
	if q.Ascending != nil && !*q.Ascending {
		ids, err = r.client.ZRevRangeByScore(ctx, mirrorPriceZSet, rng).Result()
	} else {
		ids, err = r.client.ZRangeByScore(ctx, mirrorPriceZSet, rng).Result()
	}
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(q.Name))
	var matched []models.Product
	for _, id := range ids {
		data, err := r.client.Get(ctx, mirrorDocPrefix+id).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var p models.Product
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		matched = append(matched, p)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = 10
	}
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	return &ProductPage{
		TotalCount: len(matched),
		Page:       page,
		PageSize:   size,
		Data:       matched[start:end],
	}, nil
}

// Cache for user data, invalidated on every account mutation.
type UserCache struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

func (r *RedisRepository) CacheUser(ctx context.Context, user *UserCache) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, fmt.Sprintf("user:%s", user.ID), data, 30*time.Minute).Err()
}

func (r *RedisRepository) GetUserCache(ctx context.Context, userID string) (*UserCache, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf("user:%s", userID)).Result()
	if err != nil {
		return nil, err
	}
	var user UserCache
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RedisRepository) InvalidateUser(ctx context.Context, userID string) error {
	return r.client.Del(ctx, fmt.Sprintf("user:%s", userID)).Err()
}
