package config

import "time"

// RedisConfig configures the optional Redis stream mirror of records.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	Prefix      string        `mapstructure:"prefix"`  // stream key prefix, e.g. "impulsetracker:"
	MaxLen      int64         `mapstructure:"max_len"` // approximate stream cap, 0 = unbounded
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// NATSConfig configures the optional NATS publisher of records.
type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}
