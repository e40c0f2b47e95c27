package entity

import "time"

type ResponseStatus string

const (
	StatusAttend    ResponseStatus = "ATTEND"
	StatusUndecided ResponseStatus = "UNDECIDED"
	StatusAbsent    ResponseStatus = "ABSENT"
)

func (s ResponseStatus) Valid() bool {
	switch s {
	case StatusAttend, StatusUndecided, StatusAbsent:
		return true
	}
	return false
}

// Response is one participant's answer for one slot.
type Response struct {
	ID            int64          `db:"id" json:"id"`
	ParticipantID int64          `db:"participant_id" json:"participant_id"`
	SlotID        int64          `db:"slot_id" json:"slot_id"`
	Status        ResponseStatus `db:"status" json:"status"`
	Comment       *string        `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// StatusCounts is the per-status tally for one slot.
type StatusCounts struct {
	Attend    int `db:"attend" json:"attend"`
	Undecided int `db:"undecided" json:"undecided"`
	Absent    int `db:"absent" json:"absent"`
}

func (c *StatusCounts) Add(status ResponseStatus) {
	switch status {
	case StatusAttend:
		c.Attend++
	case StatusUndecided:
		c.Undecided++
	case StatusAbsent:
		c.Absent++
	}
}

func (c StatusCounts) Total() int {
	return c.Attend + c.Undecided + c.Absent
}
