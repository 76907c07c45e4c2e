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

// Package txstore keeps AssembledTransaction JSON in a database, so a
// transaction built and simulated in one session can be signed or sent in
// another.
package txstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/sdk/pkg/assembled"
	"github.com/kaleido-io/sorobankit/sdk/pkg/persistence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoredTransaction struct {
	ID         string    `json:"id"          gorm:"column:id;primaryKey"`
	ContractID string    `json:"contractId"  gorm:"column:contract_id;index"`
	Method     string    `json:"method"      gorm:"column:method"`
	Hash       string    `json:"hash"        gorm:"column:hash"`
	State      string    `json:"state"       gorm:"column:state"`
	JSON       string    `json:"json"        gorm:"column:json"`
	Created    time.Time `json:"created"     gorm:"column:created"`
	Updated    time.Time `json:"updated"     gorm:"column:updated"`
}

func (StoredTransaction) TableName() string {
	return "stored_transactions"
}

type Store struct {
	p persistence.Persistence
}

func New(ctx context.Context, p persistence.Persistence) (*Store, error) {
	if err := persistence.AutoMigrate(ctx, p, &StoredTransaction{}); err != nil {
		return nil, err
	}
	return &Store{p: p}, nil
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.p.DB().WithContext(ctx)
}

// Save inserts or updates the transaction under its own ID
func (s *Store) Save(ctx context.Context, atx *assembled.AssembledTransaction) (string, error) {
	data, err := atx.ToJSON()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	st := &StoredTransaction{
		ID:         atx.ID(),
		ContractID: atx.ContractID(),
		Method:     atx.Method(),
		Hash:       atx.Hash(),
		State:      string(atx.State()),
		JSON:       string(data),
		Created:    now,
		Updated:    now,
	}
	err = s.db(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"hash",
				"state",
				"json",
				"updated",
			}),
		}).
		Create(st).
		Error
	if err != nil {
		return "", err
	}
	log.L(ctx).Debugf("Stored transaction %s (method=%s state=%s)", st.ID, st.Method, st.State)
	return st.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (*StoredTransaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgTxStoreInvalidID, id)
	}
	var results []*StoredTransaction
	err := s.db(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&results).
		Error
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, i18n.NewError(ctx, sbmsgs.MsgTxStoreNotFound, id)
	}
	return results[0], nil
}

// Load returns the JSON form of a stored transaction, ready for
// assembled.FromJSON
func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return []byte(st.JSON), nil
}

// List returns the most recently updated entries first
func (s *Store) List(ctx context.Context, limit int) ([]*StoredTransaction, error) {
	var results []*StoredTransaction
	q := s.db(ctx).Order("updated DESC").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&results).Error
	return results, err
}

// MarkState records the outcome of a transaction without replacing its JSON.
// An empty hash leaves the stored hash unchanged.
func (s *Store) MarkState(ctx context.Context, id string, state assembled.State, hash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return i18n.WrapError(ctx, err, sbmsgs.MsgTxStoreInvalidID, id)
	}
	updates := map[string]any{
		"state":   string(state),
		"updated": time.Now().UTC(),
	}
	if hash != "" {
		updates["hash"] = hash
	}
	res := s.db(ctx).
		Model(&StoredTransaction{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return i18n.NewError(ctx, sbmsgs.MsgTxStoreNotFound, id)
	}
	return nil
}
