package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vestlabs/vestd/internal/core/domain"
)

const vestingStoreDir = "vestings"

type vestingRepository struct {
	store *badgerhold.Store
}

type vestingDTO struct {
	domain.Vesting
	UpdatedAt int64
}

func NewVestingRepository(config ...interface{}) (domain.VestingRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, vestingStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open vesting store: %s", err)
	}

	return &vestingRepository{store}, nil
}

func (r *vestingRepository) AddOrUpdateVesting(
	ctx context.Context, vesting domain.Vesting,
) error {
	dto := vestingDTO{Vesting: vesting, UpdatedAt: time.Now().Unix()}
	upsertFn := func() error {
		return r.store.Upsert(vesting.Id, dto)
	}
	if err := upsertFn(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = upsertFn()
				attempts++
			}
		}
		return err
	}
	return nil
}

func (r *vestingRepository) GetVesting(
	ctx context.Context, id string,
) (*domain.Vesting, error) {
	var dto vestingDTO
	if err := r.store.Get(id, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("vesting %s not found", id)
		}
		return nil, fmt.Errorf("failed to get vesting: %w", err)
	}
	vesting := dto.Vesting
	return &vesting, nil
}

func (r *vestingRepository) GetAllVestings(ctx context.Context) ([]domain.Vesting, error) {
	var dtos []vestingDTO
	if err := r.store.Find(&dtos, nil); err != nil {
		return nil, fmt.Errorf("failed to list vestings: %w", err)
	}
	vestings := make([]domain.Vesting, 0, len(dtos))
	for _, dto := range dtos {
		vestings = append(vestings, dto.Vesting)
	}
	return vestings, nil
}

func (r *vestingRepository) GetVestingsForRecipient(
	ctx context.Context, recipient string,
) ([]domain.Vesting, error) {
	query := badgerhold.Where("Recipient").Eq(recipient)
	var dtos []vestingDTO
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, fmt.Errorf("failed to list vestings for %s: %w", recipient, err)
	}
	vestings := make([]domain.Vesting, 0, len(dtos))
	for _, dto := range dtos {
		vestings = append(vestings, dto.Vesting)
	}
	return vestings, nil
}

func (r *vestingRepository) Close() {
	// nolint:all
	r.store.Close()
}
