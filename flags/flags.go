package flags

import (
	"context"
	"launchpad/bizerror"
	"launchpad/idgen"
	"launchpad/persistence"
	"launchpad/session"
	"sync"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

const (
	FlagProposals = "proposals"
	FlagMessaging = "messaging"
	FlagPayments  = "payments"
	FlagEscrow    = "escrow"
)

var KnownFlags = []string{FlagProposals, FlagMessaging, FlagPayments, FlagEscrow}

type FeatureFlag struct {
	ID      types.ID `json:"id"`
	Name    string   `json:"name" gorm:"unique_index:uni_flag_name"`
	Enabled bool     `json:"enabled"`

	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

var (
	flagIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	// Active is the process-wide gate, assigned at bootstrap and replaced
	// with a fake in tests.
	Active *FlagService

	IsEnabledFunc = func(ctx context.Context, name string) bool {
		return Active.IsEnabled(ctx, name)
	}
)

// FlagService is an injected lookup over the feature_flags table with a TTL
// cache. A flag without a row is disabled.
type FlagService struct {
	ttl       time.Duration
	flagCache *cache.Cache

	mutex  sync.Mutex
	Expiry time.Time
}

func NewFlagService(ttl time.Duration) *FlagService {
	return &FlagService{ttl: ttl, flagCache: cache.New(ttl, ttl)}
}

func (f *FlagService) IsEnabled(ctx context.Context, name string) bool {
	f.mutex.Lock()
	expired := time.Now().After(f.Expiry)
	f.mutex.Unlock()
	if expired {
		if err := f.Refresh(ctx); err != nil {
			logrus.Warnf("feature flag refresh failed: %v", err)
		}
	}

	value, found := f.flagCache.Get(name)
	if !found {
		return false
	}
	enabled, ok := value.(bool)
	return ok && enabled
}

// Refresh reloads every flag row and extends the expiry window.
func (f *FlagService) Refresh(ctx context.Context) error {
	records := []FeatureFlag{}
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	if err := db.Find(&records).Error; err != nil {
		return err
	}

	f.flagCache.Flush()
	for _, record := range records {
		f.flagCache.Set(record.Name, record.Enabled, cache.NoExpiration)
	}

	f.mutex.Lock()
	f.Expiry = time.Now().Add(f.ttl)
	f.mutex.Unlock()
	return nil
}

// Snapshot lists the current state of all known flags.
func (f *FlagService) Snapshot(ctx context.Context) map[string]bool {
	result := map[string]bool{}
	for _, name := range KnownFlags {
		result[name] = f.IsEnabled(ctx, name)
	}
	return result
}

// SaveFlag persists a flag and updates the cache immediately. Admin only.
func (f *FlagService) SaveFlag(name string, enabled bool, s *session.Session) error {
	if !s.Identity.Role.IsAdmin() {
		return bizerror.ErrForbidden
	}

	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		existed := FeatureFlag{}
		err := tx.Where(&FeatureFlag{Name: name}).First(&existed).Error
		now := types.CurrentTimestamp()
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&FeatureFlag{ID: idgen.NextID(flagIdWorker), Name: name,
				Enabled: enabled, UpdateTime: now}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&FeatureFlag{}).Where(&FeatureFlag{ID: existed.ID}).
			Updates(map[string]interface{}{"enabled": enabled, "update_time": now}).Error
	})
	if err != nil {
		return err
	}

	f.flagCache.Set(name, enabled, cache.NoExpiration)
	return nil
}
