package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"memo-app/src/domain"
	"memo-app/src/search"
	"memo-app/src/store"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPersistFailed wraps storage failures after a mutation was applied in memory
	ErrPersistFailed = errors.New("failed to persist memos")
	// ErrNotInitialized is returned when an intent arrives before Initialize
	ErrNotInitialized = errors.New("memo usecase is not initialized")
)

// MemoList is what the presentation layer renders
type MemoList struct {
	Memos []domain.Memo // current query applied
	Total int           // number of memos before filtering
	Query string
}

// MemoUsecase defines the intents the presentation layer can raise
type MemoUsecase interface {
	Initialize(ctx context.Context) (MemoList, error)
	AddMemo(ctx context.Context) (MemoList, error)
	BeginEdit(ctx context.Context, id int) (MemoList, error)
	ChangeContent(ctx context.Context, id int, content string) (MemoList, error)
	SaveMemo(ctx context.Context, id int, content string) (MemoList, error)
	CancelEdit(ctx context.Context, id int) (MemoList, error)
	DeleteMemo(ctx context.Context, id int) (MemoList, error)
	SetQuery(query string) MemoList
	ListMemos() MemoList
	SearchMemos(query string) MemoList
}

type memoUsecase struct {
	mu          sync.Mutex
	store       *store.MemoStore
	memoRepo    domain.MemoRepository
	logger      *logrus.Logger
	query       string
	initialized bool
}

// NewMemoUsecase creates a new memo usecase
func NewMemoUsecase(memoRepo domain.MemoRepository, logger *logrus.Logger, opts ...store.Option) MemoUsecase {
	return &memoUsecase{
		store:    store.NewMemoStore(opts...),
		memoRepo: memoRepo,
		logger:   logger,
	}
}

// Initialize loads the persisted memo list into the store
func (u *memoUsecase) Initialize(ctx context.Context) (MemoList, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	snapshot, err := u.memoRepo.Load(ctx)
	if err != nil {
		return MemoList{}, fmt.Errorf("failed to initialize memos: %w", err)
	}

	u.store.Initialize(snapshot.Memos, snapshot.NextID)
	u.initialized = true

	u.logger.WithFields(logrus.Fields{
		"memo_count": len(snapshot.Memos),
		"next_id":    u.store.NextID(),
	}).Info("メモストアを初期化しました")
	return u.view(), nil
}

// AddMemo creates a new memo in editing state
func (u *memoUsecase) AddMemo(ctx context.Context) (MemoList, error) {
	return u.mutate(ctx, "add", 0, func() error {
		u.store.Create()
		return nil
	})
}

// BeginEdit switches a memo into editing state
func (u *memoUsecase) BeginEdit(ctx context.Context, id int) (MemoList, error) {
	return u.mutate(ctx, "begin_edit", id, func() error {
		_, err := u.store.BeginEdit(id)
		return err
	})
}

// ChangeContent replaces the draft content on every keystroke
func (u *memoUsecase) ChangeContent(ctx context.Context, id int, content string) (MemoList, error) {
	return u.mutate(ctx, "change_content", id, func() error {
		_, err := u.store.UpdateContent(id, content)
		return err
	})
}

// SaveMemo saves the memo content and leaves editing state
func (u *memoUsecase) SaveMemo(ctx context.Context, id int, content string) (MemoList, error) {
	return u.mutate(ctx, "save", id, func() error {
		_, err := u.store.Save(id, content)
		return err
	})
}

// CancelEdit reverts or discards the memo being edited
func (u *memoUsecase) CancelEdit(ctx context.Context, id int) (MemoList, error) {
	return u.mutate(ctx, "cancel_edit", id, func() error {
		_, err := u.store.CancelEdit(id)
		return err
	})
}

// DeleteMemo removes a memo
func (u *memoUsecase) DeleteMemo(ctx context.Context, id int) (MemoList, error) {
	return u.mutate(ctx, "delete", id, func() error {
		_, err := u.store.Delete(id)
		return err
	})
}

// SetQuery changes the search query used by ListMemos
func (u *memoUsecase) SetQuery(query string) MemoList {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.query = query
	return u.view()
}

// ListMemos returns the memos matching the current query
func (u *memoUsecase) ListMemos() MemoList {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.view()
}

// SearchMemos filters with query without changing the current query
func (u *memoUsecase) SearchMemos(query string) MemoList {
	u.mu.Lock()
	defer u.mu.Unlock()

	memos := u.store.Memos()
	return MemoList{
		Memos: search.Filter(memos, query),
		Total: len(memos),
		Query: query,
	}
}

// mutate applies one store operation and mirrors the result to storage.
// Rejected operations do not write.
func (u *memoUsecase) mutate(ctx context.Context, action string, id int, apply func() error) (MemoList, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.initialized {
		return MemoList{}, ErrNotInitialized
	}

	entry := u.logger.WithFields(logrus.Fields{
		"action":  action,
		"memo_id": id,
	})

	if err := apply(); err != nil {
		entry.WithError(err).Warn("メモ操作が拒否されました")
		return MemoList{}, err
	}

	if err := u.memoRepo.Save(ctx, u.store.Snapshot()); err != nil {
		entry.WithError(err).Error("メモの永続化に失敗")
		return u.view(), fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	entry.Debug("メモ操作を適用しました")
	return u.view(), nil
}

func (u *memoUsecase) view() MemoList {
	memos := u.store.Memos()
	return MemoList{
		Memos: search.Filter(memos, u.query),
		Total: len(memos),
		Query: u.query,
	}
}
