package competitive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/drawberry-games/drawberry/internal/round"
	"github.com/drawberry-games/drawberry/internal/score"
	"go.uber.org/zap"
)

// MaxNameLength is the longest display name in runes
const MaxNameLength = 32

func NewSession(config Config) *Session {
	config = config.withDefaults()

	s := &Session{
		Config:    config,
		Code:      config.Code,
		CreatedAt: config.Clock.Now(),
		phase:     PhaseWaiting,
		gate:      round.NewGate(config.MaxRounds),
		drawn:     round.NewBarrier(),
		ready:     round.NewBarrier(),
		collator:  score.NewCollator(config.Policy),
		rand:      defaultRand,
		subs:      map[int]chan Event{},
	}
	s.log.Store(logging.DefaultLogger().Named("competitive.Session"))

	return s
}

// Session is one competitive match. It owns the roster and serializes every event under one
// lock: strokes, drawings, votes, ready taps, leaves and timer ticks.
type Session struct {
	Config Config

	Code      int64
	CreatedAt time.Time

	mtx     sync.RWMutex
	players roster
	phase   Phase
	// voting completion and the round ordinal
	gate *round.Gate
	// submitted drawings
	drawn *round.Barrier
	// ready taps on the results and standings screens
	ready *round.Barrier

	collator    *score.Collator
	lastOutcome score.Outcome

	started  bool
	timeLeft int
	elapsed  int

	rand    randFn
	pending []Event
	log     atomic.Pointer[zap.SugaredLogger]

	// held from the end of a transition until its events are delivered
	pubMtx sync.Mutex

	subMtx     sync.Mutex
	subs       map[int]chan Event
	subsClosed bool
	nextSubID  int

	sema     sync.Once
	doneOnce sync.Once
	cancel   func()
}

func (s *Session) logger() *zap.SugaredLogger {
	return s.log.Load()
}

func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Config.Timeout)

	s.log.Store(logging.FromContext(ctx).Named("competitive.Session"))

	s.mtx.Lock()
	s.cancel = cancel
	s.mtx.Unlock()

	s.sema.Do(func() {
		go s.loop(ctx)
	})

	s.logger().Infof("The game session created, code: %d, author: %s", s.Code, s.Config.AuthorID)
}

func (s *Session) Stop() {
	s.mtx.RLock()
	cancel := s.cancel
	s.mtx.RUnlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) loop(ctx context.Context) {
	ticker := s.Config.Clock.NewTicker(time.Second)
	defer ticker.Stop()
	defer s.closeSubscribers()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				s.logger().Warnf("The game session %d timed out", s.Code)
				_ = s.update(func() error {
					s.finish()
					return nil
				})
			}
			return
		case <-ticker.Chan():
			s.Tick()
		}
	}
}

// update runs fn under the session lock, then publishes queued events and fires DoneFn once
// the match is finished. The publish lock is taken before the session lock is released so
// subscribers see transitions in the order they were applied.
func (s *Session) update(fn func() error) error {
	s.mtx.Lock()
	err := fn()
	events := s.pending
	s.pending = nil
	finished := s.phase == PhaseFinished
	s.pubMtx.Lock()
	s.mtx.Unlock()

	s.publish(events)
	s.pubMtx.Unlock()

	if finished {
		s.doneOnce.Do(s.done)
	}

	return err
}

func (s *Session) done() {
	if s.Config.DoneFn != nil {
		if err := s.Config.DoneFn(s); err != nil {
			s.logger().Errorf("done function: %v", err)
		}
	}

	s.Stop()
	s.logger().Infof("The game session %d is complete", s.Code)
}

func (s *Session) Join(playerID, name string) error {
	return s.update(func() error {
		if s.phase != PhaseWaiting {
			return fmt.Errorf("join %s: %w", playerID, ErrWrongPhase)
		}

		if _, ok := s.players.find(playerID); ok {
			return nil
		}

		if utf8.RuneCountInString(name) > MaxNameLength {
			return fmt.Errorf("join %s: %w", playerID, ErrInvalidName)
		}

		if len(s.players) >= s.Config.MaxPlayers {
			return fmt.Errorf("join %s: %w", playerID, ErrRoomFull)
		}

		s.players = append(s.players, NewPlayer(playerID, name))
		s.emit(Event{Kind: EventPlayerJoined, PlayerID: playerID})

		return nil
	})
}

func (s *Session) Start(playerID string) error {
	return s.update(func() error {
		if s.phase != PhaseWaiting {
			return fmt.Errorf("start: %w", ErrWrongPhase)
		}

		if playerID != s.Config.AuthorID {
			return fmt.Errorf("start by %s: %w", playerID, ErrNotAuthor)
		}

		if len(s.players) < s.Config.MinPlayers {
			return fmt.Errorf("start with %d players: %w", len(s.players), ErrNotEnoughPlayers)
		}

		s.register()
		s.startRound()

		return nil
	})
}

// Started reports whether the match left the waiting room
func (s *Session) Started() bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.started
}

func (s *Session) register() {
	s.started = true
	for _, p := range s.players {
		s.gate.Register(p.ID)
		s.drawn.Register(p.ID)
		s.ready.Register(p.ID)
	}
}

func (s *Session) startRound() {
	for _, p := range s.players {
		p.resetRound()
	}

	s.drawn.Reset()
	s.ready.Reset()
	s.phase = PhaseDrawing
	s.timeLeft = seconds(s.Config.RoundTime)
	s.elapsed = 0
	s.lastOutcome = score.Outcome{}

	s.emit(Event{Kind: EventRoundStarted})
}

// player validates the phase and the round of an action and returns its author
func (s *Session) player(round int, playerID string, phases ...Phase) (*Player, error) {
	allowed := false
	for _, phase := range phases {
		if s.phase == phase {
			allowed = true
			break
		}
	}

	if !allowed {
		return nil, ErrWrongPhase
	}

	if round != 0 && round != s.gate.Round() {
		return nil, ErrStaleRound
	}

	p, ok := s.players.find(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}

	return p, nil
}

func (s *Session) RecordStroke(round int, playerID string) error {
	return s.update(func() error {
		p, err := s.player(round, playerID, PhaseDrawing)
		if err != nil {
			return fmt.Errorf("stroke %s: %w", playerID, err)
		}

		if p.DrawingRef != "" || p.StrokesLeft(s.Config.StrokesPerPlayer) == 0 {
			return fmt.Errorf("stroke %s: %w", playerID, ErrNoStrokesLeft)
		}

		p.Strokes++
		s.emit(Event{Kind: EventStroke, PlayerID: playerID})

		if s.allStrokesUsed() {
			if grace := seconds(s.Config.FinishDrawingGrace); s.timeLeft > grace {
				s.timeLeft = grace
			}
		}

		return nil
	})
}

func (s *Session) allStrokesUsed() bool {
	for _, p := range s.players {
		if p.DrawingRef == "" && p.StrokesLeft(s.Config.StrokesPerPlayer) > 0 {
			return false
		}
	}

	return true
}

func (s *Session) ActivatePowerup(round int, playerID, powerupID string) error {
	return s.update(func() error {
		p, err := s.player(round, playerID, PhaseDrawing)
		if err != nil {
			return fmt.Errorf("activate powerup %s: %w", powerupID, err)
		}

		idx := -1
		for i, powerup := range p.Powerups {
			if powerup.ID == powerupID {
				idx = i
				break
			}
		}

		if idx == -1 {
			return fmt.Errorf("activate powerup %s: %w", powerupID, ErrPowerupNotFound)
		}

		powerup := p.Powerups[idx]
		p.Powerups = append(p.Powerups[:idx], p.Powerups[idx+1:]...)
		targets := s.applyPowerup(p, powerup)

		s.emit(Event{Kind: EventPowerupActivated, PlayerID: playerID, Powerup: &powerup, Targets: targets})

		return nil
	})
}

// SubmitDrawing stores a reference to the uploaded drawing. The first submission wins,
// repeated submissions are ignored.
func (s *Session) SubmitDrawing(round int, playerID, ref string) error {
	return s.update(func() error {
		if ref == "" {
			return fmt.Errorf("submit drawing %s: %w", playerID, ErrEmptyDrawing)
		}

		p, err := s.player(round, playerID, PhaseDrawing)
		if err != nil {
			return fmt.Errorf("submit drawing %s: %w", playerID, err)
		}

		if p.DrawingRef != "" {
			return nil
		}

		p.DrawingRef = ref
		if err := s.drawn.Mark(playerID); err != nil {
			return fmt.Errorf("submit drawing: %w", err)
		}

		s.emit(Event{Kind: EventDrawingSubmitted, PlayerID: playerID})

		if s.drawn.Complete() {
			s.openVoting(nil)
		}

		return nil
	})
}

// forceDrawing closes the drawing phase on timeout, missing drawings stay blank
func (s *Session) forceDrawing() {
	missing := s.drawn.Pending()
	if len(missing) > 0 {
		s.logger().Debugf("room %d round %d drawing timed out, missing %v", s.Code, s.gate.Round(), missing)
	}

	s.openVoting(missing)
}

func (s *Session) openVoting(missing []string) {
	s.phase = PhaseVoting
	s.timeLeft = seconds(s.Config.VoteTime)
	s.elapsed = 0

	for _, p := range s.players {
		p.FadedFor = 0
	}

	s.emit(Event{Kind: EventVotingOpened, Missing: missing})
	s.settleBallots()
}

func (s *Session) ballotSize() int {
	n := len(s.Config.VoteWeights)
	if others := len(s.players) - 1; others < n {
		n = others
	}
	if n < 0 {
		return 0
	}

	return n
}

// settleBallots records every voter whose ballot is full in the gate and closes voting once
// the gate reports the round complete
func (s *Session) settleBallots() {
	size := s.ballotSize()
	for _, p := range s.players {
		if p.picks() >= size {
			_ = s.gate.RecordAction(p.ID)
		}
	}

	if s.gate.IsRoundComplete() {
		s.closeVoting(false)
	}
}

// Vote puts target at the first free position of the voter's ballot
func (s *Session) Vote(round int, voterID, targetID string) error {
	return s.VotePick(round, voterID, targetID, 0)
}

// VotePick puts target at a 1-based ballot position, 0 takes the first free one. The position
// selects the weight, so picks delivered out of order are weighted the same. A repeated pick
// is ignored.
func (s *Session) VotePick(round int, voterID, targetID string, pick int) error {
	return s.update(func() error {
		if pick < 0 || pick > len(s.Config.VoteWeights) {
			return fmt.Errorf("vote %s pick %d: %w", voterID, pick, ErrInvalidPick)
		}

		voter, err := s.player(round, voterID, PhaseVoting)
		if err != nil {
			return fmt.Errorf("vote %s: %w", voterID, err)
		}

		if voterID == targetID {
			return fmt.Errorf("vote %s: %w", voterID, ErrSelfVote)
		}

		target, ok := s.players.find(targetID)
		if !ok {
			return fmt.Errorf("vote for %s: %w", targetID, ErrPlayerNotFound)
		}

		if voter.hasVotedFor(targetID) {
			return nil
		}

		if pick == 0 {
			pick = voter.freePick()
		}

		if size := s.ballotSize(); pick > size || voter.picks() >= size || voter.pickTaken(pick) {
			return fmt.Errorf("vote %s pick %d: %w", voterID, pick, ErrBallotFull)
		}

		voter.pick(pick, targetID)
		target.VotesReceived += s.Config.VoteWeights[pick-1]
		s.emit(Event{Kind: EventVoted, PlayerID: voterID})

		s.settleBallots()

		return nil
	})
}

// closeVoting collates the round once and applies the outcome to cumulative scores
func (s *Session) closeVoting(forced bool) {
	var missing []string
	if forced {
		missing = s.gate.Pending()
	}

	tallies := make([]score.Tally, 0, len(s.players))
	for _, p := range s.players {
		tally, err := score.NewTally(p.ID, p.VotesReceived)
		if err != nil {
			s.logger().Errorf("room %d tally: %v", s.Code, err)
			continue
		}
		tallies = append(tallies, tally)
	}

	outcome := s.collator.Collate(tallies)
	outcome.Apply(s.players)

	for _, placement := range outcome.Placements {
		p, _ := s.players.find(placement.PlayerID)
		p.TotalVotes += placement.Votes
		switch placement.Place {
		case score.PlaceFirst:
			p.FirstPlaces++
		case score.PlaceSecond:
			p.SecondPlaces++
		}
	}

	s.lastOutcome = outcome
	s.phase = PhaseResults
	s.timeLeft = seconds(s.Config.ReadyTime)
	s.elapsed = 0
	s.ready.Reset()

	s.emit(Event{Kind: EventResults, Outcome: &outcome, Missing: missing, Text: s.renderResults(outcome)})
}

// Ready records a tap on the results or the standings screen
func (s *Session) Ready(round int, playerID string) error {
	return s.update(func() error {
		if _, err := s.player(round, playerID, PhaseResults, PhaseStandings); err != nil {
			return fmt.Errorf("ready %s: %w", playerID, err)
		}

		if s.ready.Acted(playerID) {
			return nil
		}

		if err := s.ready.Mark(playerID); err != nil {
			return fmt.Errorf("ready: %w", err)
		}

		s.emit(Event{Kind: EventPlayerReady, PlayerID: playerID})

		if s.ready.Complete() {
			s.moveOn()
		}

		return nil
	})
}

func (s *Session) forceReady() {
	if missing := s.ready.Pending(); len(missing) > 0 {
		s.logger().Debugf("room %d %s timed out, not ready %v", s.Code, s.phase, missing)
	}

	s.moveOn()
}

func (s *Session) moveOn() {
	switch s.phase {
	case PhaseResults:
		s.phase = PhaseStandings
		s.timeLeft = seconds(s.Config.ReadyTime)
		s.elapsed = 0
		s.ready.Reset()

		standings := s.standings()
		s.emit(Event{Kind: EventStandings, Standings: standings, Text: s.renderStandings(standings)})
	case PhaseStandings:
		s.nextRound()
	}
}

func (s *Session) nextRound() {
	if s.gate.IsLastRound() {
		s.finish()
		return
	}

	var err error
	if s.gate.IsRoundComplete() {
		_, err = s.gate.AdvanceRound()
	} else {
		var missing []string
		_, missing, err = s.gate.ForceAdvance()
		s.logger().Debugf("room %d advanced without votes from %v", s.Code, missing)
	}

	if err != nil {
		s.logger().Errorf("room %d advance round: %v", s.Code, err)
		s.finish()
		return
	}

	s.startRound()
}

func (s *Session) finish() {
	if s.phase == PhaseFinished {
		return
	}

	s.phase = PhaseFinished
	s.timeLeft = 0

	standings := s.standings()
	s.emit(Event{Kind: EventFinished, Standings: standings, Text: s.renderFinished(standings)})
}

// Leave removes the player from every barrier. The remaining players are re-checked so the
// leaver never blocks the round.
func (s *Session) Leave(playerID string) error {
	return s.update(func() error {
		idx := -1
		for i, p := range s.players {
			if p.ID == playerID {
				idx = i
				break
			}
		}

		if idx == -1 {
			return fmt.Errorf("leave %s: %w", playerID, ErrPlayerNotFound)
		}

		s.players = append(s.players[:idx], s.players[idx+1:]...)
		s.gate.Remove(playerID)
		s.drawn.Remove(playerID)
		s.ready.Remove(playerID)

		s.emit(Event{Kind: EventPlayerLeft, PlayerID: playerID})

		if s.phase == PhaseFinished {
			return nil
		}

		if len(s.players) == 0 {
			s.finish()
			return nil
		}

		switch s.phase {
		case PhaseDrawing:
			if s.drawn.Complete() {
				s.openVoting(nil)
			}
		case PhaseVoting:
			s.settleBallots()
		case PhaseResults, PhaseStandings:
			if s.ready.Complete() {
				s.moveOn()
			}
		}

		return nil
	})
}

// Tick advances the match clock by one second. When the phase timer runs out the phase is
// closed through its forced path.
func (s *Session) Tick() {
	_ = s.update(func() error {
		s.tick()
		return nil
	})
}

func (s *Session) tick() {
	if s.phase == PhaseWaiting || s.phase == PhaseFinished {
		return
	}

	s.elapsed++
	s.timeLeft--

	if s.phase == PhaseDrawing {
		s.expireFades()
		s.rollPowerups()
	}

	if s.timeLeft > 0 {
		s.emit(Event{Kind: EventTick})
		return
	}

	switch s.phase {
	case PhaseDrawing:
		s.forceDrawing()
	case PhaseVoting:
		s.closeVoting(true)
	case PhaseResults, PhaseStandings:
		s.forceReady()
	}
}

func (s *Session) standings() []score.Standing {
	entries := make([]score.Entry, len(s.players))
	for i, p := range s.players {
		entries[i] = score.Entry{PlayerID: p.ID, Name: p.Name, Score: p.Score}
	}

	return score.Standings(entries)
}

func (s *Session) Standings() []score.Standing {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.standings()
}

// Outcome is the collated result of the last closed voting round
func (s *Session) Outcome() score.Outcome {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.lastOutcome
}

func (s *Session) Players() []Player {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	list := make([]Player, len(s.players))
	for i, p := range s.players {
		list[i] = p.clone()
	}

	return list
}

func (s *Session) HasPlayer(playerID string) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	_, ok := s.players.find(playerID)
	return ok
}

func (s *Session) Round() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.gate.Round()
}

func (s *Session) Phase() Phase {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.phase
}

func (s *Session) TimeLeft() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.timeLeft
}
