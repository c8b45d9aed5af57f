package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	localCache "github.com/cadencehq/beacon/pkg/internal/cache"
	"github.com/cadencehq/beacon/pkg/internal/database"
	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// ResolveTopic maps a channel id to the transport topic name. Direct pair
// ids are already canonical topic names; everything else gets the chan
// prefix. Pure and deterministic, so both sides of a pair always agree.
func ResolveTopic(channelId string) string {
	if strings.HasPrefix(channelId, "conv-") {
		return channelId
	}
	return "chan-" + channelId
}

// ParseDirectChannelID recovers the identity pair from a canonical direct
// channel id.
func ParseDirectChannelID(channelId string) (uint, uint, bool) {
	parts := strings.Split(channelId, "-")
	if len(parts) != 3 || parts[0] != "conv" {
		return 0, 0, false
	}
	lo, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || lo >= hi {
		return 0, 0, false
	}
	return uint(lo), uint(hi), true
}

type channelEntry struct {
	kind       models.ChannelType
	members    map[uint]struct{}
	emptySince *time.Time
}

// ChannelRegistry owns channel membership. Channels are created lazily on
// first join and reaped by the sweeper once they stay empty past the grace
// period.
type ChannelRegistry struct {
	mu       sync.Mutex
	channels map[string]*channelEntry

	gcGrace time.Duration
	now     func() time.Time
}

func NewChannelRegistry(gcGrace time.Duration) *ChannelRegistry {
	return &ChannelRegistry{
		channels: make(map[string]*channelEntry),
		gcGrace:  gcGrace,
		now:      time.Now,
	}
}

// Join is idempotent; re-adding an existing member is a no-op.
func (r *ChannelRegistry) Join(channelId string, kind models.ChannelType, accountId uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.channels[channelId]
	if !ok {
		entry = &channelEntry{kind: kind, members: make(map[uint]struct{})}
		r.channels[channelId] = entry
	}
	entry.members[accountId] = struct{}{}
	entry.emptySince = nil
}

// Leave removes the member; removing the last one marks the channel
// eligible for garbage collection after the grace period.
func (r *ChannelRegistry) Leave(channelId string, accountId uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.channels[channelId]
	if !ok {
		return
	}
	delete(entry.members, accountId)
	if len(entry.members) == 0 && entry.emptySince == nil {
		now := r.now()
		entry.emptySince = &now
	}
}

func (r *ChannelRegistry) IsMember(channelId string, accountId uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.channels[channelId]
	if !ok {
		return false
	}
	_, ok = entry.members[accountId]
	return ok
}

func (r *ChannelRegistry) Members(channelId string) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.channels[channelId]
	if !ok {
		return nil
	}
	members := make([]uint, 0, len(entry.members))
	for accountId := range entry.members {
		members = append(members, accountId)
	}
	return members
}

func (r *ChannelRegistry) JoinedChannels(accountId uint) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for channelId, entry := range r.channels {
		if _, ok := entry.members[accountId]; ok {
			out = append(out, channelId)
		}
	}
	return out
}

// SweepEmpty reaps channels that stayed empty past the grace period and
// returns the reaped ids.
func (r *ChannelRegistry) SweepEmpty() []string {
	deadline := r.now().Add(-r.gcGrace)

	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	for channelId, entry := range r.channels {
		if entry.emptySince != nil && entry.emptySince.Before(deadline) {
			delete(r.channels, channelId)
			reaped = append(reaped, channelId)
		}
	}
	return reaped
}

func GetChannelCacheKey(channelId string) string {
	return fmt.Sprintf("channel-descriptor-%s", channelId)
}

// JoinChannel registers membership and mirrors the descriptor to the
// database. The descriptor is observability only; its write never gates the
// join.
func JoinChannel(channelId string, kind models.ChannelType, user models.Account) {
	Channels.Join(channelId, kind, user.ID)
	persistChannelDescriptor(channelId, kind)
}

func LeaveChannel(channelId string, user models.Account) {
	Channels.Leave(channelId, user.ID)
	persistChannelDescriptor(channelId, models.ChannelTypeConversation)
}

func persistChannelDescriptor(channelId string, kind models.ChannelType) {
	members := Channels.Members(channelId)

	if database.C != nil {
		if err := database.C.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "alias"}},
			DoUpdates: clause.AssignmentColumns([]string{"members", "updated_at"}),
		}).Create(&models.Channel{
			Alias:   channelId,
			Type:    kind,
			Members: datatypes.NewJSONSlice(members),
		}).Error; err != nil {
			log.Warn().Err(err).Str("channel", channelId).Msg("Unable to persist channel descriptor...")
		}
	}

	if localCache.S != nil {
		marshal := marshaler.New(cache.New[any](localCache.S))
		_ = marshal.Invalidate(
			context.Background(),
			store.WithInvalidateTags([]string{fmt.Sprintf("channel#%s", channelId)}),
		)
	}
}

// GetChannelProfile reads the persisted descriptor through the cache.
func GetChannelProfile(channelId string) (models.Channel, error) {
	if localCache.S != nil {
		marshal := marshaler.New(cache.New[any](localCache.S))
		if val, err := marshal.Get(
			context.Background(),
			GetChannelCacheKey(channelId),
			new(models.Channel),
		); err == nil {
			return *(val.(*models.Channel)), nil
		}
	}

	var channel models.Channel
	if err := database.C.Where(models.Channel{Alias: channelId}).First(&channel).Error; err != nil {
		return channel, err
	}

	if localCache.S != nil {
		marshal := marshaler.New(cache.New[any](localCache.S))
		_ = marshal.Set(
			context.Background(),
			GetChannelCacheKey(channelId),
			channel,
			store.WithTags([]string{fmt.Sprintf("channel#%s", channelId)}),
		)
	}

	return channel, nil
}
