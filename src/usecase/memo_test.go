package usecase_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"memo-app/src/domain"
	"memo-app/src/infrastructure/repository"
	"memo-app/src/storage"
	"memo-app/src/store"
	"memo-app/src/usecase"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMemoRepository は domain.MemoRepository のモック実装
type MockMemoRepository struct {
	mock.Mock
}

func (m *MockMemoRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *MockMemoRepository) Save(ctx context.Context, snapshot domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newUsecase(t *testing.T, repo domain.MemoRepository) usecase.MemoUsecase {
	t.Helper()
	return usecase.NewMemoUsecase(repo, newTestLogger(), store.WithClock(func() time.Time { return testNow }))
}

func newInitializedUsecase(t *testing.T, repo *MockMemoRepository, snapshot domain.Snapshot) usecase.MemoUsecase {
	t.Helper()
	repo.On("Load", mock.Anything).Return(snapshot, nil).Once()
	u := newUsecase(t, repo)
	_, err := u.Initialize(context.Background())
	require.NoError(t, err)
	return u
}

func TestMemoUsecase_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("永続化データを読み込む", func(t *testing.T) {
		repo := &MockMemoRepository{}
		repo.On("Load", ctx).Return(domain.Snapshot{
			Memos:  []domain.Memo{{ID: 2, Content: "b"}, {ID: 1, Content: "a"}},
			NextID: 3,
		}, nil)
		u := newUsecase(t, repo)

		list, err := u.Initialize(ctx)

		require.NoError(t, err)
		assert.Len(t, list.Memos, 2)
		assert.Equal(t, 2, list.Total)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("読み込み失敗", func(t *testing.T) {
		repo := &MockMemoRepository{}
		repo.On("Load", ctx).Return(domain.Snapshot{}, domain.ErrCorruptState)
		u := newUsecase(t, repo)

		_, err := u.Initialize(ctx)

		assert.ErrorIs(t, err, domain.ErrCorruptState)
	})

	t.Run("初期化前の操作は拒否される", func(t *testing.T) {
		u := newUsecase(t, &MockMemoRepository{})

		_, err := u.AddMemo(ctx)

		assert.ErrorIs(t, err, usecase.ErrNotInitialized)
	})
}

func TestMemoUsecase_MutationsArePersisted(t *testing.T) {
	ctx := context.Background()
	repo := &MockMemoRepository{}
	u := newInitializedUsecase(t, repo, domain.Snapshot{NextID: 1})

	repo.On("Save", ctx, domain.Snapshot{
		Memos:  []domain.Memo{{ID: 1, IsEditing: true, CreatedAt: testNow}},
		NextID: 2,
	}).Return(nil).Once()

	list, err := u.AddMemo(ctx)

	require.NoError(t, err)
	require.Len(t, list.Memos, 1)
	assert.Equal(t, 1, list.Memos[0].ID)
	repo.AssertExpectations(t)
}

func TestMemoUsecase_RejectedIntentDoesNotWrite(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func(u usecase.MemoUsecase) error
		wantErr error
	}{
		{
			name: "存在しないIDの編集",
			call: func(u usecase.MemoUsecase) error {
				_, err := u.BeginEdit(ctx, 99)
				return err
			},
			wantErr: domain.ErrMemoNotFound,
		},
		{
			name: "存在しないIDの入力",
			call: func(u usecase.MemoUsecase) error {
				_, err := u.ChangeContent(ctx, 99, "x")
				return err
			},
			wantErr: domain.ErrMemoNotFound,
		},
		{
			name: "空の内容の保存",
			call: func(u usecase.MemoUsecase) error {
				_, err := u.SaveMemo(ctx, 1, "   ")
				return err
			},
			wantErr: domain.ErrValidationRejected,
		},
		{
			name: "存在しないIDのキャンセル",
			call: func(u usecase.MemoUsecase) error {
				_, err := u.CancelEdit(ctx, 99)
				return err
			},
			wantErr: domain.ErrMemoNotFound,
		},
		{
			name: "存在しないIDの削除",
			call: func(u usecase.MemoUsecase) error {
				_, err := u.DeleteMemo(ctx, 99)
				return err
			},
			wantErr: domain.ErrMemoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockMemoRepository{}
			u := newInitializedUsecase(t, repo, domain.Snapshot{
				Memos:  []domain.Memo{{ID: 1, Content: "saved", IsEditing: true}},
				NextID: 2,
			})

			err := tt.call(u)

			assert.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			assert.Equal(t, "saved", u.ListMemos().Memos[0].Content)
		})
	}
}

func TestMemoUsecase_PersistFailure(t *testing.T) {
	ctx := context.Background()
	repo := &MockMemoRepository{}
	u := newInitializedUsecase(t, repo, domain.Snapshot{NextID: 1})
	storeErr := errors.New("disk full")
	repo.On("Save", ctx, mock.Anything).Return(storeErr).Once()

	list, err := u.AddMemo(ctx)

	assert.ErrorIs(t, err, usecase.ErrPersistFailed)
	assert.ErrorIs(t, err, storeErr)
	// メモリ上の状態は変更済み
	assert.Len(t, list.Memos, 1)
}

func TestMemoUsecase_Query(t *testing.T) {
	ctx := context.Background()
	repo := &MockMemoRepository{}
	u := newInitializedUsecase(t, repo, domain.Snapshot{
		Memos: []domain.Memo{
			{ID: 2, Content: "Walk dog"},
			{ID: 1, Content: "Buy Milk"},
		},
		NextID: 3,
	})

	t.Run("クエリを設定すると一覧が絞り込まれる", func(t *testing.T) {
		list := u.SetQuery("milk")

		require.Len(t, list.Memos, 1)
		assert.Equal(t, "Buy Milk", list.Memos[0].Content)
		assert.Equal(t, 2, list.Total)
		assert.Equal(t, "milk", list.Query)
		assert.Equal(t, list, u.ListMemos())
	})

	t.Run("変更後も現在のクエリが適用される", func(t *testing.T) {
		repo.On("Save", ctx, mock.Anything).Return(nil)

		list, err := u.AddMemo(ctx)

		require.NoError(t, err)
		assert.Len(t, list.Memos, 1)
		assert.Equal(t, 3, list.Total)
	})

	t.Run("SearchMemosは現在のクエリを変えない", func(t *testing.T) {
		list := u.SearchMemos("dog")

		require.Len(t, list.Memos, 1)
		assert.Equal(t, "Walk dog", list.Memos[0].Content)
		assert.Equal(t, "milk", u.ListMemos().Query)
	})

	t.Run("クエリをクリア", func(t *testing.T) {
		list := u.SetQuery("")

		assert.Len(t, list.Memos, 3)
	})
}

func TestMemoUsecase_ReloadKeepsEditingState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	repo := repository.NewMemoRepository(kv, newTestLogger())

	first := newUsecase(t, repo)
	_, err := first.Initialize(ctx)
	require.NoError(t, err)
	_, err = first.AddMemo(ctx)
	require.NoError(t, err)
	_, err = first.ChangeContent(ctx, 1, "half typed")
	require.NoError(t, err)

	// 再起動をシミュレート
	second := newUsecase(t, repo)
	list, err := second.Initialize(ctx)
	require.NoError(t, err)

	require.Len(t, list.Memos, 1)
	assert.Equal(t, "half typed", list.Memos[0].Content)
	assert.True(t, list.Memos[0].IsEditing)

	list, err = second.AddMemo(ctx)
	require.NoError(t, err)
	require.Len(t, list.Memos, 2)
	assert.Equal(t, 2, list.Memos[0].ID)
	assert.False(t, list.Memos[1].IsEditing)
}

func TestMemoUsecase_Scenario(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	repo := repository.NewMemoRepository(kv, newTestLogger())
	u := newUsecase(t, repo)

	list, err := u.Initialize(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Memos)

	list, err = u.AddMemo(ctx)
	require.NoError(t, err)
	require.Len(t, list.Memos, 1)
	assert.True(t, list.Memos[0].IsEditing)

	_, err = u.ChangeContent(ctx, 1, "buy milk")
	require.NoError(t, err)
	list, err = u.SaveMemo(ctx, 1, "buy milk")
	require.NoError(t, err)
	assert.False(t, list.Memos[0].IsEditing)

	list, err = u.AddMemo(ctx)
	require.NoError(t, err)
	require.Len(t, list.Memos, 2)

	list, err = u.CancelEdit(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list.Memos, 1)
	assert.Equal(t, "buy milk", list.Memos[0].Content)

	list, err = u.DeleteMemo(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list.Memos)

	// 永続化された状態を確認
	rawNextID, ok, err := kv.Get(ctx, repository.NextIDKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", rawNextID)

	rawMemos, ok, err := kv.Get(ctx, repository.MemosKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", rawMemos)
}
