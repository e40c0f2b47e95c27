package entity

import (
	"reflect"
	"testing"
)

func TestSortSlots(t *testing.T) {
	ord := func(n int) *int { return &n }

	tt := []struct {
		name  string
		slots []Slot
		want  []int64
	}{
		{
			name:  "by display order",
			slots: []Slot{{ID: 1, DisplayOrder: ord(2)}, {ID: 2, DisplayOrder: ord(0)}, {ID: 3, DisplayOrder: ord(1)}},
			want:  []int64{2, 3, 1},
		},
		{
			name:  "legacy rows without order fall back to id",
			slots: []Slot{{ID: 9}, {ID: 4}, {ID: 7}},
			want:  []int64{4, 7, 9},
		},
		{
			name:  "unordered rows go last",
			slots: []Slot{{ID: 1}, {ID: 5, DisplayOrder: ord(3)}, {ID: 2, DisplayOrder: ord(0)}},
			want:  []int64{2, 5, 1},
		},
		{
			name:  "equal order breaks ties by id",
			slots: []Slot{{ID: 8, DisplayOrder: ord(1)}, {ID: 3, DisplayOrder: ord(1)}},
			want:  []int64{3, 8},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			SortSlots(tc.slots)
			got := make([]int64, len(tc.slots))
			for i, s := range tc.slots {
				got[i] = s.ID
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SortSlots() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMaxDisplayOrder(t *testing.T) {
	ord := func(n int) *int { return &n }

	tt := []struct {
		name  string
		slots []Slot
		want  int
	}{
		{name: "empty", want: -1},
		{name: "no orders", slots: []Slot{{ID: 1}, {ID: 2}}, want: -1},
		{name: "ignores unordered", slots: []Slot{{ID: 1, DisplayOrder: ord(4)}, {ID: 2}, {ID: 3, DisplayOrder: ord(1)}}, want: 4},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaxDisplayOrder(tc.slots); got != tc.want {
				t.Errorf("MaxDisplayOrder() = %d, want %d", got, tc.want)
			}
		})
	}
}
