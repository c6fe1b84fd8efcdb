package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

// setupConnectionFlags declares the flags every data command shares and binds
// them into viper so BENCHKV_ environment variables and config files can set
// them too.
func setupConnectionFlags() {
	pf := rootCmd.PersistentFlags()
	pf.String("driver", "", "Backend driver name or alias (memory, badger, sqlite, postgres, mysql, mongodb, redis, cassandra)")
	pf.String("url", "", "Backend connection URL or DSN")
	pf.String("host", "", "Backend host")
	pf.Int("port", 0, "Backend port")
	pf.String("username", "", "Backend username")
	pf.String("password", "", "Backend password")
	pf.String("database", "", "Database, keyspace or store path")
	pf.String("durability", "", "Write durability level (safe, normal, fsync_safe, replicas_safe)")
	pf.Int("max-conns", 0, "Maximum pooled connections")
	pf.Duration("connect-timeout", 0, "Connection timeout")
	pf.StringToString("option", nil, "Backend-specific option (repeatable, key=value)")
	pf.Bool("debug", false, "Enable debug logging")

	for _, flag := range []string{
		"driver", "url", "host", "port", "username", "password",
		"database", "durability", "max-conns", "connect-timeout", "debug",
	} {
		viper.BindPFlag(flag, pf.Lookup(flag))
	}
}

// connectionConfig assembles the driver configuration from the merged
// settings.
func connectionConfig() *driver.Config {
	cfg := &driver.Config{
		Driver:         viper.GetString("driver"),
		URL:            viper.GetString("url"),
		Host:           viper.GetString("host"),
		Port:           viper.GetInt("port"),
		Username:       viper.GetString("username"),
		Password:       viper.GetString("password"),
		Database:       viper.GetString("database"),
		Durability:     driver.Durability(viper.GetString("durability")),
		MaxConns:       viper.GetInt("max-conns"),
		ConnectTimeout: viper.GetDuration("connect-timeout"),
	}
	if opts, err := rootCmd.PersistentFlags().GetStringToString("option"); err == nil && len(opts) > 0 {
		cfg.Options = opts
	}
	return cfg
}

func newLogger(component string) *logger.Logger {
	log := logger.New(component, Version)
	log.SetDebug(viper.GetBool("debug"))
	return log
}

// elapsed formats a duration for result lines.
func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Microsecond).String()
}
