package domain

// Participant is a registered student tracked in the roster.
type Participant struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"` // platform identity (Feishu open_id)
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Group      string `json:"group"`
}

// Roster is the persisted aggregate: all participants in registration order
// plus the next identifier to issue. IDs are never reused.
type Roster struct {
	Participants []Participant `json:"participants"`
	NextID       int64         `json:"next_id"`
}

// NewRoster returns an empty roster with the counter at 1.
func NewRoster() *Roster {
	return &Roster{NextID: 1}
}

// FindByExternalID looks up a participant by platform identity.
func (r *Roster) FindByExternalID(externalID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ExternalID == externalID {
			return &r.Participants[i]
		}
	}
	return nil
}

// FindByID looks up a participant by roster id.
func (r *Roster) FindByID(id int64) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			return &r.Participants[i]
		}
	}
	return nil
}

// FindByGroup returns all participants of a group, in registration order.
func (r *Roster) FindByGroup(group string) []Participant {
	var result []Participant
	for _, p := range r.Participants {
		if p.Group == group {
			result = append(result, p)
		}
	}
	return result
}

// Clone returns a deep copy of the roster. Mutations go through a copy so a
// failed save never leaves the live aggregate half-updated.
func (r *Roster) Clone() *Roster {
	c := &Roster{NextID: r.NextID}
	c.Participants = make([]Participant, len(r.Participants))
	copy(c.Participants, r.Participants)
	return c
}
