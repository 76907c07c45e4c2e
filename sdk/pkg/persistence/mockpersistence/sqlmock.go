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

// Package mockpersistence scripts the SQL issued through a
// persistence.Persistence, so tests can inject DB failures
package mockpersistence

import (
	"context"
	"database/sql"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/persistence"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// SQLMockProvider holds a Persistence speaking the postgres dialect to a
// sqlmock connection. Tables are never migrated, so only the statements a
// test expects reach the mock.
type SQLMockProvider struct {
	DB   *sql.DB
	Mock sqlmock.Sqlmock
	P    persistence.Persistence
}

func NewSQLMockProvider() (*SQLMockProvider, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}
	mp := &SQLMockProvider{DB: db, Mock: mock}
	dialect := &persistence.Dialect{
		Name: "sqlmock",
		Driver: func(string) gorm.Dialector {
			return gormPostgres.New(gormPostgres.Config{Conn: db})
		},
	}
	mp.P, err = persistence.NewSQLProvider(context.Background(), dialect,
		&sbconf.SQLDBConfig{DSN: "mocked"},
		&sbconf.SQLDBConfig{
			MaxOpenConns:    confutil.P(1),
			MaxIdleConns:    confutil.P(1),
			ConnMaxIdleTime: confutil.P("0"),
			ConnMaxLifetime: confutil.P("0"),
			AutoMigrate:     confutil.P(false),
		})
	if err != nil {
		return nil, err
	}
	return mp, nil
}

// ExpectFailedTransaction scripts a transaction that is rolled back after its
// first statement fails
func (mp *SQLMockProvider) ExpectFailedTransaction(statement string, err error) {
	mp.Mock.ExpectBegin()
	mp.Mock.ExpectExec(statement).WillReturnError(err)
	mp.Mock.ExpectRollback()
}
