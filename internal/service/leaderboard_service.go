package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"quizmind_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// UserDirectory 排行榜展示用的用户名解析，由 UserRepository 实现
type UserDirectory interface {
	FindByIDs(ids []uint) ([]model.User, error)
}

// LeaderboardEntry 榜单条目
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"userId"`
	Name     string `json:"name"`
	Accuracy int    `json:"accuracy"`
}

// LeaderboardService 按话题维护正确率榜单。每个用户只保留
// 历史最好成绩；Redis 不可用时整个功能静默降级。
type LeaderboardService struct {
	rdb   *redis.Client
	users UserDirectory
}

func NewLeaderboardService(rdb *redis.Client, users UserDirectory) *LeaderboardService {
	return &LeaderboardService{rdb: rdb, users: users}
}

const leaderboardKeyPrefix = "quizmind:leaderboard:"

// leaderboardKey 话题名归一化为键：小写、空白折叠为下划线
func leaderboardKey(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	if t == "" {
		t = "general knowledge"
	}
	return leaderboardKeyPrefix + strings.Join(strings.Fields(t), "_")
}

// Record 记一次成绩，只在好于既有最好成绩时覆盖
func (s *LeaderboardService) Record(ctx context.Context, topic string, userID uint, accuracy int) error {
	if s.rdb == nil {
		return nil
	}
	key := leaderboardKey(topic)
	member := strconv.FormatUint(uint64(userID), 10)

	cur, err := s.rdb.ZScore(ctx, key, member).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil && float64(accuracy) <= cur {
		return nil
	}
	return s.rdb.ZAdd(ctx, key, &redis.Z{Score: float64(accuracy), Member: member}).Err()
}

// Top 取话题榜前 limit 名，并解析用户名
func (s *LeaderboardService) Top(ctx context.Context, topic string, limit int) ([]LeaderboardEntry, error) {
	if s.rdb == nil {
		return []LeaderboardEntry{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	zs, err := s.rdb.ZRevRangeWithScores(ctx, leaderboardKey(topic), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(zs))
	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   uint(id),
			Accuracy: int(z.Score),
		})
	}

	if len(ids) > 0 && s.users != nil {
		users, err := s.users.FindByIDs(ids)
		if err == nil {
			names := make(map[uint]string, len(users))
			for _, u := range users {
				names[u.ID] = u.Name
			}
			for i := range entries {
				entries[i].Name = names[entries[i].UserID]
			}
		}
	}
	return entries, nil
}
