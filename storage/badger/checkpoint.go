// Copyright 2025 Poiesic Systems
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


package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/storage"
)

// CheckpointRepository stores one checkpoint per pipeline stage.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{backend: backend}
}

// SaveCheckpoint overwrites the checkpoint of checkpoint.Stage, stamping
// UpdatedAt on the caller's value.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if checkpoint == nil || checkpoint.Stage == "" {
		return fmt.Errorf("%w: checkpoint stage required", storage.ErrInvalidQuery)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	checkpoint.UpdatedAt = time.Now().UTC()
	value := storage.MarshalCheckpoint(checkpoint)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeCheckpointKey(checkpoint.Stage), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint returns the checkpoint of stage, or nil if the stage never
// completed.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, stage string) (*core.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var checkpoint *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCheckpointKey(stage))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			checkpoint, err = storage.UnmarshalCheckpoint(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, fmt.Errorf("loading %s checkpoint: %w", stage, err)
	}
	return checkpoint, nil
}

// CheckpointFor is LoadCheckpoint restricted to checkpoints written with
// model. A checkpoint of another model is returned with
// storage.ErrModelMismatch.
func (r *CheckpointRepository) CheckpointFor(ctx context.Context, stage, model string) (*core.Checkpoint, error) {
	checkpoint, err := r.LoadCheckpoint(ctx, stage)
	if err != nil || checkpoint == nil {
		return nil, err
	}
	if checkpoint.Model != model {
		return checkpoint, fmt.Errorf("%w: %s checkpoint written with %q, not %q",
			storage.ErrModelMismatch, stage, checkpoint.Model, model)
	}
	return checkpoint, nil
}
