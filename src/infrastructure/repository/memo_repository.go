package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"memo-app/src/domain"

	"github.com/sirupsen/logrus"
)

// Storage keys of the memo list and the id counter
const (
	MemosKey  = "memos"
	NextIDKey = "nextId"
)

var _ domain.MemoRepository = (*MemoRepository)(nil)

// MemoRepository mirrors the memo list into a key-value store as JSON
type MemoRepository struct {
	kv     domain.KeyValueStore
	logger *logrus.Logger
}

// NewMemoRepository creates a new memo repository
func NewMemoRepository(kv domain.KeyValueStore, logger *logrus.Logger) *MemoRepository {
	return &MemoRepository{
		kv:     kv,
		logger: logger,
	}
}

// Load reads the persisted memo list. Missing keys yield an empty list and
// the first id.
func (r *MemoRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{
		Memos:  []domain.Memo{},
		NextID: domain.FirstID,
	}

	rawMemos, ok, err := r.kv.Get(ctx, MemosKey)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load memos: %w", err)
	}
	if ok {
		var memos []domain.Memo
		if err := json.Unmarshal([]byte(rawMemos), &memos); err != nil {
			r.logger.WithError(err).Error("メモの復元に失敗")
			return domain.Snapshot{}, fmt.Errorf("%w: memos: %v", domain.ErrCorruptState, err)
		}
		snapshot.Memos = domain.CloneMemos(memos)
	}

	rawNextID, ok, err := r.kv.Get(ctx, NextIDKey)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load next id: %w", err)
	}
	if ok {
		nextID, err := strconv.Atoi(strings.TrimSpace(rawNextID))
		if err != nil || nextID < domain.FirstID {
			r.logger.WithField("value", rawNextID).Error("次のIDの復元に失敗")
			return domain.Snapshot{}, fmt.Errorf("%w: nextId %q", domain.ErrCorruptState, rawNextID)
		}
		snapshot.NextID = nextID
	}

	r.logger.WithFields(logrus.Fields{
		"memo_count": len(snapshot.Memos),
		"next_id":    snapshot.NextID,
	}).Info("メモを読み込みました")
	return snapshot, nil
}

// Save writes the memo list and the id counter
func (r *MemoRepository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(domain.CloneMemos(snapshot.Memos))
	if err != nil {
		return fmt.Errorf("failed to marshal memos: %w", err)
	}

	if err := r.kv.Set(ctx, MemosKey, string(data)); err != nil {
		r.logger.WithError(err).Error("メモの保存に失敗")
		return fmt.Errorf("failed to save memos: %w", err)
	}
	if err := r.kv.Set(ctx, NextIDKey, strconv.Itoa(snapshot.NextID)); err != nil {
		r.logger.WithError(err).Error("次のIDの保存に失敗")
		return fmt.Errorf("failed to save next id: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"memo_count": len(snapshot.Memos),
		"next_id":    snapshot.NextID,
	}).Debug("メモを保存しました")
	return nil
}
