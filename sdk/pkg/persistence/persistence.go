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

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"gorm.io/gorm"
)

type Persistence interface {
	DB() *gorm.DB
	Close()

	// Transaction runs fn in a DB transaction, with a log field identifying it
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error
}

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// NewPersistence opens the database of conf.Type, sqlite when unset, with
// pool settings from that type's section of conf
func NewPersistence(ctx context.Context, conf *sbconf.DBConfig) (Persistence, error) {
	dbType := conf.Type
	if dbType == "" {
		dbType = sbconf.DBDefaults.Type
	}
	d, ok := dialects[dbType]
	if !ok {
		return nil, i18n.NewError(ctx, sbmsgs.MsgPersistenceInvalidType, conf.Type)
	}
	return NewSQLProvider(ctx, d, d.section(conf), d.section(sbconf.DBDefaults))
}
