// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gormstore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/internhub/database/plugin"
	"gorm.io/gorm"
)

// Conn holds the connection settings of a networked metadata plugin
type Conn struct {
	Host     string
	Port     uint64
	User     string
	Password string
	Database string
	// TLS is the postgres sslmode or the mysql tls parameter
	TLS      string
	TimeZone string
	// DSN, when set, overrides every field above
	DSN          string
	MaxOpenConns uint64
}

type ConnOption func(*Conn)

func WithHost(host string) ConnOption { return func(c *Conn) { c.Host = host } }
func WithPort(port uint64) ConnOption { return func(c *Conn) { c.Port = port } }
func WithUser(user string) ConnOption { return func(c *Conn) { c.User = user } }
func WithPassword(pw string) ConnOption { return func(c *Conn) { c.Password = pw } }
func WithDatabase(name string) ConnOption { return func(c *Conn) { c.Database = name } }
func WithTLS(mode string) ConnOption { return func(c *Conn) { c.TLS = mode } }
func WithTimeZone(zone string) ConnOption { return func(c *Conn) { c.TimeZone = zone } }
func WithDSN(dsn string) ConnOption { return func(c *Conn) { c.DSN = dsn } }
func WithConn(conn Conn) ConnOption { return func(c *Conn) { *c = conn } }
func WithMaxOpenConns(n uint64) ConnOption { return func(c *Conn) { c.MaxOpenConns = n } }

// Apply returns a copy of c with opts applied
func (c Conn) Apply(opts ...ConnOption) Conn {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// PluginOptions binds the fields of c to plugin options, using their
// current values as defaults
func (c *Conn) PluginOptions(driver string) []plugin.PluginOption {
	str := func(name, desc string, dest *string) plugin.PluginOption {
		return plugin.PluginOption{
			Name:         name,
			Type:         plugin.PluginOptionTypeString,
			Description:  fmt.Sprintf("%s %s", driver, desc),
			DefaultValue: *dest,
			Dest:         dest,
		}
	}
	num := func(name, desc string, dest *uint64) plugin.PluginOption {
		return plugin.PluginOption{
			Name:         name,
			Type:         plugin.PluginOptionTypeUint,
			Description:  fmt.Sprintf("%s %s", driver, desc),
			DefaultValue: *dest,
			Dest:         dest,
		}
	}
	return []plugin.PluginOption{
		str("host", "host", &c.Host),
		num("port", "port", &c.Port),
		str("user", "user", &c.User),
		str("password", "password", &c.Password),
		str("database", "database name", &c.Database),
		str("ssl-mode", "TLS mode", &c.TLS),
		str("timezone", "connection time zone", &c.TimeZone),
		str("dsn", "DSN (overrides the other connection options)", &c.DSN),
		num("max-open-conns", "connection pool size", &c.MaxOpenConns),
	}
}

// PreparedConfig is GormConfig with prepared statements, for servers that
// keep them across calls
func PreparedConfig() *gorm.Config {
	cfg := GormConfig()
	cfg.PrepareStmt = true
	return cfg
}

// OpenPool sizes the connection pool of a freshly opened networked database
// and wraps it in a Store
func OpenPool(db *gorm.DB, c Conn, logger *slog.Logger) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := int(min(c.MaxOpenConns, 1<<16)) //nolint:gosec
	if maxOpen == 0 {
		maxOpen = 100
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(maxOpen/10, 1))
	sqlDB.SetConnMaxLifetime(time.Hour)
	store, err := New(db, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}
