package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Slot is a candidate date/time proposed by the organizer.
type Slot struct {
	ID           int64     `db:"id" json:"id"`
	EventID      uuid.UUID `db:"event_id" json:"event_id"`
	Date         time.Time `db:"slot_date" json:"date"`
	Time         string    `db:"slot_time" json:"time"` // zero padded HH:MM
	IsConfirmed  bool      `db:"is_confirmed" json:"is_confirmed"`
	DisplayOrder *int      `db:"display_order" json:"display_order,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SameMoment reports whether the slot already holds the given date and time.
func (s *Slot) SameMoment(date time.Time, hhmm string) bool {
	return s.Date.Format("2006-01-02") == date.Format("2006-01-02") && s.Time == hhmm
}

// SortSlots orders slots for display: by display order ascending, then id. Slots with no
// display order (rows written before ordering existed) go after ordered ones, by id.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i].DisplayOrder, slots[j].DisplayOrder
		switch {
		case a != nil && b != nil:
			if *a != *b {
				return *a < *b
			}
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return slots[i].ID < slots[j].ID
	})
}

// MaxDisplayOrder returns the highest display order among slots, or -1 when none has one.
func MaxDisplayOrder(slots []Slot) int {
	highest := -1
	for _, s := range slots {
		if s.DisplayOrder != nil && *s.DisplayOrder > highest {
			highest = *s.DisplayOrder
		}
	}
	return highest
}
