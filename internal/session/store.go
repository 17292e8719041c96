package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/models"
)

// DefaultMoodScore is the draft mood score at the start of every session.
const DefaultMoodScore = 5

const watchBufferSize = 8

// Draft is the in-progress, unsaved session record for the current subject.
type Draft struct {
	MoodScore int    `json:"mood_score"`
	Content   string `json:"content"`
}

// DraftPatch carries partial draft updates; nil fields are left untouched.
type DraftPatch struct {
	MoodScore *int    `json:"mood_score"`
	Content   *string `json:"content"`
}

func defaultDraft() Draft {
	return Draft{MoodScore: DefaultMoodScore}
}

// Snapshot is a read-only view of the terminal state at one point in time.
type Snapshot struct {
	Locked             bool            `json:"locked"`
	AdminAuthenticated bool            `json:"admin_authenticated"`
	Identity           *Identity       `json:"identity"`
	Student            *models.Student `json:"student"`
	Draft              Draft           `json:"draft"`
	Status             Status          `json:"status"`
	UnlockDenied       bool            `json:"unlock_denied"`
	Epoch              uint64          `json:"epoch"`
}

// NavigationGuard receives lock-cycle notifications so the presentation
// layer can pin its current location or reset to the root.
type NavigationGuard interface {
	PinLocation()
	ResetLocation()
}

// Store is the single process-wide container for terminal state. It is the
// only writer of identity, subject selection, draft and status; every
// mutation is an atomic, synchronous field replacement under one mutex and
// never performs I/O or returns an error.
type Store struct {
	mu sync.Mutex

	locked      bool
	adminAuthed bool
	identity    *Identity
	student     *models.Student
	draft       Draft
	status      Status

	deniedUntil  time.Time
	deniedWindow time.Duration

	epoch    uint64
	guard    NavigationGuard
	watchers map[chan Snapshot]struct{}
	now      func() time.Time
	logger   zerolog.Logger
}

// NewStore constructs the terminal state store. deniedWindow is how long an
// unlock denial stays visible in snapshots.
func NewStore(deniedWindow time.Duration, guard NavigationGuard, logger zerolog.Logger) *Store {
	if deniedWindow <= 0 {
		deniedWindow = 2 * time.Second
	}

	return &Store{
		draft:        defaultDraft(),
		status:       StatusLogin,
		deniedWindow: deniedWindow,
		guard:        guard,
		watchers:     make(map[chan Snapshot]struct{}),
		now:          time.Now,
		logger:       logger.With().Str("component", "session_store").Logger(),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Epoch returns the current session epoch. The epoch advances on every
// transition that discards session context (lock, unlock, reset, logout);
// async completions compare it against the value they captured at start and
// drop their result when it moved on.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.epoch
}

// Watch registers a state watcher. The current snapshot is delivered first;
// the cancel function releases the watcher and may be called exactly once.
func (s *Store) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, watchBufferSize)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, ch)
			s.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// SetIdentity replaces the authenticated identity.
func (s *Store) SetIdentity(identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity != nil {
		copied := *identity
		s.identity = &copied
	} else {
		s.identity = nil
	}
	s.notifyLocked()
}

// SetStudent replaces the selected subject.
func (s *Store) SetStudent(student *models.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if student != nil {
		copied := *student
		s.student = &copied
	} else {
		s.student = nil
	}
	s.notifyLocked()
}

// SetStatus replaces the navigational status.
func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
	s.notifyLocked()
}

// SetAdminAuthenticated replaces the admin capability flag. It is
// independent of the identity and of the lock flag.
func (s *Store) SetAdminAuthenticated(authed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.adminAuthed = authed
	s.notifyLocked()
}

// UpdateDraft shallow-merges the patch into the current draft. Fields absent
// from the patch keep their value; the mood score is clamped to [1,10].
func (s *Store) UpdateDraft(patch DraftPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.MoodScore != nil {
		score := *patch.MoodScore
		if score < 1 {
			score = 1
		} else if score > 10 {
			score = 10
		}
		s.draft.MoodScore = score
	}
	if patch.Content != nil {
		s.draft.Content = *patch.Content
	}
	s.notifyLocked()
}

// Lock enters the locked state: the draft and subject are force-cleared, the
// admin capability is revoked and navigation is pinned so history traversal
// cannot expose a previously rendered view. Idempotent under repetition.
func (s *Store) Lock() {
	s.mu.Lock()

	s.locked = true
	s.adminAuthed = false
	s.status = StatusLocked
	s.student = nil
	s.draft = defaultDraft()
	s.epoch++
	s.notifyLocked()
	guard := s.guard
	s.mu.Unlock()

	s.logger.Info().Msg("terminal locked")
	if guard != nil {
		guard.PinLocation()
	}
}

// Unlock leaves the locked state and returns to subject selection. The
// previously selected subject is not restored; every lock cycle discards
// the subject context.
func (s *Store) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locked = false
	s.adminAuthed = false
	s.status = StatusStudentSelect
	s.draft = defaultDraft()
	s.deniedUntil = time.Time{}
	s.epoch++
	s.notifyLocked()

	s.logger.Info().Msg("terminal unlocked")
}

// ResetSession clears the subject and draft and returns to subject
// selection. Used for operator-initiated cancellation, not for gating.
func (s *Store) ResetSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.student = nil
	s.draft = defaultDraft()
	s.status = StatusStudentSelect
	s.epoch++
	s.notifyLocked()
}

// Logout performs the full-system reset back to the login state and resets
// the navigational location so no authenticated route remains reachable.
func (s *Store) Logout() {
	s.mu.Lock()

	s.identity = nil
	s.student = nil
	s.draft = defaultDraft()
	s.locked = false
	s.adminAuthed = false
	s.status = StatusLogin
	s.deniedUntil = time.Time{}
	s.epoch++
	s.notifyLocked()
	guard := s.guard
	s.mu.Unlock()

	s.logger.Info().Msg("operator logged out")
	if guard != nil {
		guard.ResetLocation()
	}
}

// MarkUnlockDenied opens the transient denial window shown after a failed
// unlock attempt. Snapshots report UnlockDenied until the window elapses.
func (s *Store) MarkUnlockDenied() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deniedUntil = s.now().Add(s.deniedWindow)
	s.notifyLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Locked:             s.locked,
		AdminAuthenticated: s.adminAuthed,
		Draft:              s.draft,
		Status:             s.status,
		UnlockDenied:       s.now().Before(s.deniedUntil),
		Epoch:              s.epoch,
	}
	if s.identity != nil {
		copied := *s.identity
		snap.Identity = &copied
	}
	if s.student != nil {
		copied := *s.student
		snap.Student = &copied
	}
	return snap
}

func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	for ch := range s.watchers {
		select {
		case ch <- snap:
		default:
			// Slow watchers miss intermediate snapshots rather than block a
			// mutation.
		}
	}
}
