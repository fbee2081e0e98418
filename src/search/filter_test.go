package search_test

import (
	"testing"

	"memo-app/src/domain"
	"memo-app/src/search"

	"github.com/stretchr/testify/assert"
)

func sampleMemos() []domain.Memo {
	return []domain.Memo{
		{ID: 4, Content: "Buy Milk"},
		{ID: 3, Content: "Walk dog"},
		{ID: 2, Content: "milkshake recipe"},
		{ID: 1, Content: ""},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []int
	}{
		{name: "空のクエリは全件", query: "", expected: []int{4, 3, 2, 1}},
		{name: "大文字小文字を区別しない", query: "milk", expected: []int{4, 2}},
		{name: "大文字のクエリ", query: "MILK", expected: []int{4, 2}},
		{name: "部分一致", query: "alk", expected: []int{3}},
		{name: "一致なし", query: "cat", expected: []int{}},
		{name: "空白を含むクエリ", query: "buy m", expected: []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := search.Filter(sampleMemos(), tt.query)

			ids := make([]int, 0, len(result))
			for _, m := range result {
				ids = append(ids, m.ID)
				assert.True(t, search.Matches(m, tt.query))
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestFilter_EmptyQueryReturnsCollectionUnchanged(t *testing.T) {
	memos := sampleMemos()
	assert.Equal(t, memos, search.Filter(memos, ""))
}

func TestFilter_Idempotent(t *testing.T) {
	for _, q := range []string{"", "milk", "o", "zzz"} {
		once := search.Filter(sampleMemos(), q)
		twice := search.Filter(once, q)
		assert.Equal(t, once, twice, "query %q", q)
	}
}

func TestFilter_Scenario(t *testing.T) {
	memos := []domain.Memo{{Content: "Buy Milk"}, {Content: "Walk dog"}}

	result := search.Filter(memos, "milk")

	assert.Equal(t, []domain.Memo{{Content: "Buy Milk"}}, result)
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	memos := sampleMemos()
	result := search.Filter(memos, "")
	result[0].Content = "changed"

	assert.Equal(t, "Buy Milk", memos[0].Content)
}
