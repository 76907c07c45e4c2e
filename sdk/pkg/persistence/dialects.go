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
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	gormPostgres "gorm.io/driver/postgres"
	gormSQLite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect is an SQLDBProvider made from a name and a gorm driver
type Dialect struct {
	Name   string
	Driver func(dsn string) gorm.Dialector
	// section picks the SQLDBConfig for this dialect out of a DBConfig
	section func(conf *sbconf.DBConfig) *sbconf.SQLDBConfig
}

func (d *Dialect) DBName() string {
	return d.Name
}

func (d *Dialect) Open(dsn string) gorm.Dialector {
	return d.Driver(dsn)
}

var dialects = map[string]*Dialect{
	TypeSQLite: {
		Name:    TypeSQLite,
		Driver:  gormSQLite.Open,
		section: func(conf *sbconf.DBConfig) *sbconf.SQLDBConfig { return &conf.SQLite },
	},
	TypePostgres: {
		Name:    TypePostgres,
		Driver:  gormPostgres.Open,
		section: func(conf *sbconf.DBConfig) *sbconf.SQLDBConfig { return &conf.Postgres },
	},
}
