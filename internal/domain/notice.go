package domain

// Notice is a single edital discovered on the listing page.
type Notice struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Outcome enumerates how the pipeline disposed of a candidate.
type Outcome string

const (
	OutcomeSkippedDuplicate   Outcome = "skipped-duplicate"
	OutcomeSkippedLocality    Outcome = "skipped-locality"
	OutcomeAcceptedByTitle    Outcome = "accepted-by-title"
	OutcomeAcceptedByDocument Outcome = "accepted-by-document"
	OutcomeRejectedByDocument Outcome = "rejected-by-document"
	OutcomeError              Outcome = "error"
)

// Accepted reports whether the outcome adds the notice to the accepted set.
func (o Outcome) Accepted() bool {
	return o == OutcomeAcceptedByTitle || o == OutcomeAcceptedByDocument
}

// AcceptedSet keeps previously accepted notices in insertion order, keyed by link.
type AcceptedSet struct {
	notices []Notice
	links   map[string]struct{}
}

// NewAcceptedSet builds a set from the given notices, dropping repeated links.
func NewAcceptedSet(notices ...Notice) *AcceptedSet {
	set := &AcceptedSet{
		notices: make([]Notice, 0, len(notices)),
		links:   make(map[string]struct{}, len(notices)),
	}
	for _, n := range notices {
		set.Append(n)
	}
	return set
}

// Contains tests membership by link.
func (s *AcceptedSet) Contains(link string) bool {
	if s == nil {
		return false
	}
	_, ok := s.links[link]
	return ok
}

// Append adds the notice and returns false when its link is already present.
func (s *AcceptedSet) Append(n Notice) bool {
	if s.links == nil {
		s.links = map[string]struct{}{}
	}
	if _, ok := s.links[n.Link]; ok {
		return false
	}
	s.links[n.Link] = struct{}{}
	s.notices = append(s.notices, n)
	return true
}

// Notices returns a copy of the members in insertion order.
func (s *AcceptedSet) Notices() []Notice {
	if s == nil {
		return nil
	}
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// Len returns the number of members.
func (s *AcceptedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.notices)
}
