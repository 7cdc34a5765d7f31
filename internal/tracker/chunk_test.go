package tracker

import (
	"reflect"
	"testing"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		items []int
		size  int
		want  [][]int
	}{
		{[]int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{[]int{1, 2, 3}, 3, [][]int{{1, 2, 3}}},
		{[]int{1, 2, 3}, 10, [][]int{{1, 2, 3}}},
		{[]int{1, 2}, 0, [][]int{{1}, {2}}},
		{nil, 4, [][]int{}},
	}
	for _, tt := range tests {
		if got := Chunk(tt.items, tt.size); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Chunk(%v, %d) = %v, want %v", tt.items, tt.size, got, tt.want)
		}
	}
}

func TestChunkNoAliasingOnAppend(t *testing.T) {
	items := []int{1, 2, 3, 4}
	groups := Chunk(items, 2)
	_ = append(groups[0], 99)
	if items[2] != 3 {
		t.Fatalf("append to a group overwrote the next group: %v", items)
	}
}
