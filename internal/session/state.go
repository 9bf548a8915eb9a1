package session

import "time"

// Stage is the discrete progress of a conversation toward a confirmed booking
type Stage string

const (
	StageInit         Stage = "INIT"
	StageNeedTitle    Stage = "NEED_TITLE"
	StageNeedPerson   Stage = "NEED_PERSON"
	StageNeedDateTime Stage = "NEED_DATETIME"
	StageCollecting   Stage = "COLLECTING"
	StageConfirm      Stage = "CONFIRM"
	StageDone         Stage = "DONE"
)

func (s Stage) String() string {
	return string(s)
}

// IsDirected reports whether the stage is waiting on the answer to a single-slot question.
func (s Stage) IsDirected() bool {
	switch s {
	case StageNeedTitle, StageNeedPerson, StageNeedDateTime:
		return true
	}
	return false
}

// State is the per-user conversation record.
// ResolvedDateTime is only set once RawDateTimeText has been parsed.
type State struct {
	UserID           string     `json:"user_id"`
	Title            *string    `json:"title,omitempty"`
	Person           *string    `json:"person,omitempty"`
	RawDateTimeText  *string    `json:"raw_datetime_text,omitempty"`
	ResolvedDateTime *time.Time `json:"resolved_datetime,omitempty"`
	Stage            Stage      `json:"stage"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// New returns an empty state in StageInit
func New(userID string, now time.Time) *State {
	return &State{
		UserID:    userID,
		Stage:     StageInit,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsComplete returns true when title, person and a resolved date/time are all present
func (s *State) IsComplete() bool {
	return s.Title != nil && s.Person != nil && s.ResolvedDateTime != nil
}

// Clone returns a deep copy so a turn can be rolled back
func (s *State) Clone() *State {
	c := *s
	c.Title = copyString(s.Title)
	c.Person = copyString(s.Person)
	c.RawDateTimeText = copyString(s.RawDateTimeText)
	if s.ResolvedDateTime != nil {
		t := *s.ResolvedDateTime
		c.ResolvedDateTime = &t
	}
	return &c
}

// Restore overwrites s with the contents of snapshot
func (s *State) Restore(snapshot *State) {
	*s = *snapshot.Clone()
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
