package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// StudioLimits caps resource usage per studio. Values can be tuned at
// runtime through the limits config file without a restart.
type StudioLimits struct {
	MaxMembers        int `mapstructure:"maxMembers"`
	MaxLocations      int `mapstructure:"maxLocations"`
	MaxPendingInvites int `mapstructure:"maxPendingInvites"`
	MaxActiveClasses  int `mapstructure:"maxActiveClasses"`
	MaxImagesPerClass int `mapstructure:"maxImagesPerClass"`
	MaxPricingTiers   int `mapstructure:"maxPricingTiers"`
	InviteExpiryDays  int `mapstructure:"inviteExpiryDays"`
	MessagePageSize   int `mapstructure:"messagePageSize"`
}

func DefaultStudioLimits() StudioLimits {
	return StudioLimits{
		MaxMembers:        500,
		MaxLocations:      20,
		MaxPendingInvites: 50,
		MaxActiveClasses:  100,
		MaxImagesPerClass: 12,
		MaxPricingTiers:   8,
		InviteExpiryDays:  14,
		MessagePageSize:   50,
	}
}

type StudioLimitsHolder struct {
	current atomic.Value // holds StudioLimits
}

func NewStudioLimitsHolder() (*StudioLimitsHolder, error) {
	v := viper.New()

	v.SetConfigName("limits")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/throwclay/config")
	v.AddConfigPath("/etc/throwclay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("THROWCLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultStudioLimits()
		v.SetDefault("limits.maxMembers", defaults.MaxMembers)
		v.SetDefault("limits.maxLocations", defaults.MaxLocations)
		v.SetDefault("limits.maxPendingInvites", defaults.MaxPendingInvites)
		v.SetDefault("limits.maxActiveClasses", defaults.MaxActiveClasses)
		v.SetDefault("limits.maxImagesPerClass", defaults.MaxImagesPerClass)
		v.SetDefault("limits.maxPricingTiers", defaults.MaxPricingTiers)
		v.SetDefault("limits.inviteExpiryDays", defaults.InviteExpiryDays)
		v.SetDefault("limits.messagePageSize", defaults.MessagePageSize)
	}

	var cfg StudioLimits
	if err := v.UnmarshalKey("limits", &cfg); err != nil {
		return nil, err
	}
	if err := validateStudioLimits(cfg); err != nil {
		return nil, err
	}

	holder := &StudioLimitsHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated StudioLimits
		if err := v.UnmarshalKey("limits", &updated); err != nil {
			log.Printf("[limits-config] reload failed: %v", err)
			return
		}
		if err := validateStudioLimits(updated); err != nil {
			log.Printf("[limits-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[limits-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticStudioLimitsHolder wraps a fixed set of limits with no file
// watching. Useful for tests and embedded setups.
func NewStaticStudioLimitsHolder(cfg StudioLimits) *StudioLimitsHolder {
	holder := &StudioLimitsHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *StudioLimitsHolder) Get() StudioLimits {
	return h.current.Load().(StudioLimits)
}

func validateStudioLimits(cfg StudioLimits) error {
	if cfg.MaxMembers <= 0 {
		return errors.New("limits.maxMembers must be positive")
	}
	if cfg.MaxLocations <= 0 {
		return errors.New("limits.maxLocations must be positive")
	}
	if cfg.MaxPendingInvites <= 0 {
		return errors.New("limits.maxPendingInvites must be positive")
	}
	if cfg.InviteExpiryDays <= 0 {
		return errors.New("limits.inviteExpiryDays must be positive")
	}
	if cfg.MessagePageSize <= 0 {
		return errors.New("limits.messagePageSize must be positive")
	}
	return nil
}
