// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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

package persistence

import (
	"context"
	"database/sql"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sbtypes"
	"gorm.io/gorm"
)

type provider struct {
	p    SQLDBProvider
	gdb  *gorm.DB
	db   *sql.DB
	conf *sbconf.SQLDBConfig
	defs *sbconf.SQLDBConfig
}

type SQLDBProvider interface {
	DBName() string
	Open(dsn string) gorm.Dialector
}

func NewSQLProvider(ctx context.Context, p SQLDBProvider, conf *sbconf.SQLDBConfig, defs *sbconf.SQLDBConfig) (_ Persistence, err error) {
	dsn := confutil.StringNotEmpty(&conf.DSN, defs.DSN)
	if dsn == "" {
		return nil, i18n.NewError(ctx, sbmsgs.MsgPersistenceNoDSN)
	}

	var gp *provider
	gdb, err := gorm.Open(p.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err == nil {
		gp = &provider{
			p:    p,
			gdb:  gdb,
			conf: conf,
			defs: defs,
		}
		gp.db, err = gdb.DB()
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgPersistenceInitFailed)
	}
	if conf.DebugQueries {
		gp.gdb = gp.gdb.Debug()
	}
	gp.db.SetMaxOpenConns(confutil.IntMin(conf.MaxOpenConns, 1, *defs.MaxOpenConns))
	gp.db.SetMaxIdleConns(confutil.Int(conf.MaxIdleConns, *defs.MaxIdleConns))
	gp.db.SetConnMaxIdleTime(confutil.DurationMin(conf.ConnMaxIdleTime, 0, *defs.ConnMaxIdleTime))
	gp.db.SetConnMaxLifetime(confutil.DurationMin(conf.ConnMaxLifetime, 0, *defs.ConnMaxLifetime))
	log.L(ctx).Infof("Opened %s database", p.DBName())
	return gp, nil
}

// AutoMigrate creates or updates the tables for the given models, unless
// migration is disabled in config
func AutoMigrate(ctx context.Context, p Persistence, models ...any) error {
	if gp, ok := p.(*provider); ok && !confutil.Bool(gp.conf.AutoMigrate, *gp.defs.AutoMigrate) {
		log.L(ctx).Infof("Auto-migration disabled")
		return nil
	}
	if err := p.DB().WithContext(ctx).AutoMigrate(models...); err != nil {
		return i18n.WrapError(ctx, err, sbmsgs.MsgPersistenceInitFailed)
	}
	return nil
}

func (gp *provider) DB() *gorm.DB {
	return gp.gdb
}

func (gp *provider) Close() {
	err := gp.db.Close()
	log.L(context.Background()).Infof("DB closed (err=%v)", err)
}

func (gp *provider) Transaction(parentCtx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	txCtx := log.WithLogField(parentCtx, "dbtx", sbtypes.ShortID())
	return gp.gdb.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		return fn(txCtx, tx)
	})
}
