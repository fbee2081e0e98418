// Package store holds the in-memory memo list and its editing transitions.
// It performs no I/O: callers persist Snapshot() after every mutation.
package store

import (
	"fmt"
	"time"

	"memo-app/src/domain"
)

// MemoStore is the ordered memo collection plus the id counter.
// Every operation replaces the internal slice instead of editing it in place
// and hands back a copy, so a returned collection never changes afterwards.
type MemoStore struct {
	memos  []domain.Memo
	nextID int
	// saved holds the last saved content of each memo, used by CancelEdit
	saved map[int]string
	now   func() time.Time
}

// Option configures a MemoStore
type Option func(*MemoStore)

// WithClock overrides the clock used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(s *MemoStore) {
		s.now = now
	}
}

// NewMemoStore creates an empty memo store
func NewMemoStore(opts ...Option) *MemoStore {
	s := &MemoStore{
		memos:  []domain.Memo{},
		nextID: domain.FirstID,
		saved:  make(map[int]string),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize replaces the state with previously persisted memos and counter.
// A missing counter starts at 1; a counter not above every loaded id is raised.
func (s *MemoStore) Initialize(memos []domain.Memo, nextID int) []domain.Memo {
	s.memos = domain.CloneMemos(memos)
	s.saved = make(map[int]string, len(s.memos))

	if nextID < domain.FirstID {
		nextID = domain.FirstID
	}
	for _, m := range s.memos {
		if m.ID >= nextID {
			nextID = m.ID + 1
		}
		s.saved[m.ID] = m.Content
	}
	s.nextID = nextID

	return s.Memos()
}

// Memos returns a copy of the current collection
func (s *MemoStore) Memos() []domain.Memo {
	return domain.CloneMemos(s.memos)
}

// NextID returns the id the next Create will assign
func (s *MemoStore) NextID() int {
	return s.nextID
}

// Snapshot returns the state to persist
func (s *MemoStore) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Memos:  s.Memos(),
		NextID: s.nextID,
	}
}

// Create resolves the memo currently being edited (blank ones are dropped,
// others are kept as saved) and prepends a new empty memo in editing state.
func (s *MemoStore) Create() []domain.Memo {
	editing := s.editingIndex()

	memos := make([]domain.Memo, 1, len(s.memos)+1)
	for i, m := range s.memos {
		if i == editing {
			if m.IsBlank() {
				delete(s.saved, m.ID)
				continue
			}
			m.IsEditing = false
			s.saved[m.ID] = m.Content
		}
		memos = append(memos, m)
	}

	memo := domain.Memo{
		ID:        s.nextID,
		Content:   "",
		IsEditing: true,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	memos[0] = memo
	s.saved[memo.ID] = ""
	s.nextID++

	s.memos = memos
	return s.Memos()
}

// BeginEdit puts the memo into editing state. Other editing memos are left alone.
func (s *MemoStore) BeginEdit(id int) ([]domain.Memo, error) {
	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}

	m := s.memos[i]
	if !m.IsEditing {
		s.saved[id] = m.Content
	}
	m.IsEditing = true
	s.replaceAt(i, m)

	return s.Memos(), nil
}

// UpdateContent replaces the draft content without leaving editing state
func (s *MemoStore) UpdateContent(id int, text string) ([]domain.Memo, error) {
	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}

	m := s.memos[i]
	m.Content = text
	s.replaceAt(i, m)

	return s.Memos(), nil
}

// Save stores text as the memo content and leaves editing state.
// Blank text is rejected with domain.ErrValidationRejected and nothing changes.
func (s *MemoStore) Save(id int, text string) ([]domain.Memo, error) {
	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	if domain.IsBlank(text) {
		return nil, fmt.Errorf("memo %d: %w", id, domain.ErrValidationRejected)
	}

	m := s.memos[i]
	m.Content = text
	m.IsEditing = false
	s.replaceAt(i, m)
	s.saved[id] = text

	return s.Memos(), nil
}

// CancelEdit leaves editing state without ever keeping a blank memo.
// A memo with saved content gets it back. A memo that was never saved keeps
// its non-blank draft, and is deleted when the draft is blank too.
func (s *MemoStore) CancelEdit(id int) ([]domain.Memo, error) {
	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}

	m := s.memos[i]
	saved, ok := s.saved[id]
	if !ok {
		// 編集中にリロードされた場合は永続化済みの内容を保存済みとみなす
		saved = m.Content
	}

	content := saved
	if domain.IsBlank(saved) {
		content = m.Content
	}
	if domain.IsBlank(content) {
		s.removeAt(i)
		return s.Memos(), nil
	}

	m.Content = content
	m.IsEditing = false
	s.replaceAt(i, m)
	s.saved[id] = content

	return s.Memos(), nil
}

// Delete removes the memo unconditionally
func (s *MemoStore) Delete(id int) ([]domain.Memo, error) {
	i, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}

	s.removeAt(i)
	return s.Memos(), nil
}

func (s *MemoStore) indexOf(id int) (int, error) {
	for i, m := range s.memos {
		if m.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("memo %d: %w", id, domain.ErrMemoNotFound)
}

// editingIndex returns the first memo in editing state, or -1
func (s *MemoStore) editingIndex() int {
	for i, m := range s.memos {
		if m.IsEditing {
			return i
		}
	}
	return -1
}

func (s *MemoStore) replaceAt(i int, m domain.Memo) {
	memos := domain.CloneMemos(s.memos)
	memos[i] = m
	s.memos = memos
}

func (s *MemoStore) removeAt(i int) {
	id := s.memos[i].ID
	memos := make([]domain.Memo, 0, len(s.memos)-1)
	memos = append(memos, s.memos[:i]...)
	memos = append(memos, s.memos[i+1:]...)
	s.memos = memos
	delete(s.saved, id)
}
