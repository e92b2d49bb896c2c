package service

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/draft"
	"listing_studio/pkg/market"
)

// ProfileRepository 用户资料来源
type ProfileRepository interface {
	Profile(ctx context.Context) (*market.Profile, error)
}

// ProfileService 当前用户上下文
// 每个用户只拉取一次，登出前一直复用
type ProfileService struct {
	repo ProfileRepository

	mu       sync.RWMutex
	profiles map[int64]*dto.ProfileResponse
	// 每次登出递增，拉取开始后发生过登出的结果不写回缓存
	generations map[int64]uint64
	group       singleflight.Group
}

// NewProfileService 创建用户资料服务
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{
		repo:        repo,
		profiles:    make(map[int64]*dto.ProfileResponse),
		generations: make(map[int64]uint64),
	}
}

// Current 当前用户资料
func (s *ProfileService) Current(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	s.mu.RLock()
	p, ok := s.profiles[userID]
	gen := s.generations[userID]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	// 共享调用不随首个调用方取消，Token 等上下文值保留
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		raw, err := s.repo.Profile(fetchCtx)
		if err != nil {
			return nil, err
		}
		profile := &dto.ProfileResponse{
			UserID: raw.UserID.Int64(),
			Name:   raw.Name,
			Email:  raw.Email,
			Role:   raw.Role,
		}

		s.mu.Lock()
		if s.generations[userID] == gen {
			s.profiles[userID] = profile
		}
		s.mu.Unlock()
		return profile, nil
	})
	if err != nil {
		return nil, draft.Transport(err)
	}
	return v.(*dto.ProfileResponse), nil
}

// Logout 丢弃缓存的资料
func (s *ProfileService) Logout(userID int64) {
	s.mu.Lock()
	delete(s.profiles, userID)
	s.generations[userID]++
	s.mu.Unlock()
	s.group.Forget(strconv.FormatInt(userID, 10))
}
