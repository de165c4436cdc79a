package teambattle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/drawberry-games/drawberry/internal/round"
	"github.com/drawberry-games/drawberry/internal/score"
	"go.uber.org/zap"
)

func NewBattle(config Config) *Battle {
	config = config.withDefaults()

	b := &Battle{
		Config:    config,
		Code:      config.Code,
		CreatedAt: config.Clock.Now(),
		phase:     PhaseWaiting,
		drawn:     round.NewBarrier(),
		solved:    round.NewBarrier(),
	}
	b.log.Store(logging.DefaultLogger().Named("teambattle.Battle"))

	return b
}

// Battle is one team battle match. Every call is serialized under one lock.
type Battle struct {
	Config Config

	Code      int64
	CreatedAt time.Time

	mtx      sync.RWMutex
	phase    Phase
	members  []Member
	teams    []*Team
	timeLeft int

	// drawers that uploaded every round
	drawn *round.Barrier
	// guessers that resolved every round
	solved *round.Barrier

	log      atomic.Pointer[zap.SugaredLogger]
	sema     sync.Once
	doneOnce sync.Once
	cancel   func()
}

func (b *Battle) logger() *zap.SugaredLogger {
	return b.log.Load()
}

func (b *Battle) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, b.Config.Timeout)

	b.log.Store(logging.FromContext(ctx).Named("teambattle.Battle"))

	b.mtx.Lock()
	b.cancel = cancel
	b.mtx.Unlock()

	b.sema.Do(func() {
		go b.loop(ctx)
	})

	b.logger().Infof("The team battle created, code: %d, author: %s", b.Code, b.Config.AuthorID)
}

func (b *Battle) Stop() {
	b.mtx.RLock()
	cancel := b.cancel
	b.mtx.RUnlock()

	if cancel != nil {
		cancel()
	}
}

func (b *Battle) loop(ctx context.Context) {
	ticker := b.Config.Clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				b.logger().Warnf("The team battle %d timed out", b.Code)
				_ = b.update(func() error {
					b.finish()
					return nil
				})
			}
			return
		case <-ticker.Chan():
			b.Tick()
		}
	}
}

// update runs fn under the lock and fires DoneFn once the battle is finished
func (b *Battle) update(fn func() error) error {
	b.mtx.Lock()
	err := fn()
	finished := b.phase == PhaseFinished
	b.mtx.Unlock()

	if finished {
		b.doneOnce.Do(b.done)
	}

	return err
}

func (b *Battle) done() {
	if b.Config.DoneFn != nil {
		if err := b.Config.DoneFn(b); err != nil {
			b.logger().Errorf("done function: %v", err)
		}
	}

	b.Stop()
	b.logger().Infof("The team battle %d is complete", b.Code)
}

func (b *Battle) Join(playerID, name string) error {
	return b.update(func() error {
		if b.phase != PhaseWaiting {
			return fmt.Errorf("join %s: %w", playerID, ErrWrongPhase)
		}

		for _, m := range b.members {
			if m.ID == playerID {
				return nil
			}
		}

		if utf8.RuneCountInString(name) > MaxNameLength {
			return fmt.Errorf("join %s: %w", playerID, ErrInvalidName)
		}

		if len(b.members) >= b.Config.MaxPlayers {
			return fmt.Errorf("join %s: %w", playerID, ErrRoomFull)
		}

		if name == "" {
			name = playerID
		}
		b.members = append(b.members, Member{ID: playerID, Name: name})

		return nil
	})
}

// Leave drops a waiting member or dissolves the member's team once the battle runs.
// The battle finishes when nobody is left to play.
func (b *Battle) Leave(playerID string) error {
	return b.update(func() error {
		idx := -1
		for i, m := range b.members {
			if m.ID == playerID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("leave %s: %w", playerID, ErrPlayerNotFound)
		}
		b.members = append(b.members[:idx], b.members[idx+1:]...)

		switch b.phase {
		case PhaseWaiting:
			if len(b.members) == 0 {
				b.finish()
			}
		case PhasePlaying:
			if t, ok := b.teamOf(playerID); ok && !t.Dissolved {
				t.Dissolved = true
				b.drawn.Remove(t.Drawer.ID)
				b.solved.Remove(t.Guesser.ID)
			}

			if b.solved.Len() == 0 || b.solved.Complete() {
				b.finish()
			}
		}

		return nil
	})
}

// Start pairs the members into teams in join order, the first of a pair draws
func (b *Battle) Start(playerID string) error {
	return b.update(func() error {
		if b.phase != PhaseWaiting {
			return fmt.Errorf("start: %w", ErrWrongPhase)
		}

		if playerID != b.Config.AuthorID {
			return fmt.Errorf("start by %s: %w", playerID, ErrNotAuthor)
		}

		if len(b.members) < 2 || len(b.members)%2 != 0 {
			return fmt.Errorf("start with %d players: %w", len(b.members), ErrUnevenTeams)
		}

		words := ParseWordList(b.Config.Words)
		topics := make([][]string, len(b.members)/2)
		for r := 0; r < b.Config.MaxRounds; r++ {
			for i := range topics {
				topics[i] = append(topics[i], words.Next())
			}
		}

		for i := range topics {
			drawer, guesser := b.members[2*i], b.members[2*i+1]
			b.teams = append(b.teams, newTeam(i+1, drawer, guesser, topics[i]))
			b.drawn.Register(drawer.ID)
			b.solved.Register(guesser.ID)
		}

		b.phase = PhasePlaying
		b.timeLeft = seconds(b.Config.MatchTime)
		b.logger().Infof("The team battle %d started with %d teams", b.Code, len(b.teams))

		return nil
	})
}

// Topic returns what the drawer has to draw next and the round it belongs to
func (b *Battle) Topic(playerID string) (string, int, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	t, err := b.drawerTeam(playerID)
	if err != nil {
		return "", 0, err
	}

	next := len(t.Drawings) + 1
	if next > len(t.topics) {
		return "", 0, fmt.Errorf("topic for %s: %w", playerID, ErrDrawingsComplete)
	}

	return t.topics[next-1], next, nil
}

// SubmitDrawing stores the drawer's next drawing and returns its round
func (b *Battle) SubmitDrawing(playerID, ref string) (int, error) {
	var r int
	err := b.update(func() error {
		t, err := b.drawerTeam(playerID)
		if err != nil {
			return err
		}

		if ref == "" {
			return fmt.Errorf("drawing of %s: %w", playerID, ErrEmptyDrawing)
		}

		if len(t.Drawings) >= len(t.topics) {
			return fmt.Errorf("drawing of %s: %w", playerID, ErrDrawingsComplete)
		}

		t.Drawings = append(t.Drawings, ref)
		r = len(t.Drawings)
		if r == len(t.topics) {
			_ = b.drawn.Mark(playerID)
		}

		return nil
	})

	return r, err
}

// Guess checks the guesser's answer for the current drawing. A wrong answer is counted and
// the round stays open, a correct one moves the guesser on.
func (b *Battle) Guess(playerID, guess string) (bool, error) {
	var correct bool
	err := b.update(func() error {
		t, err := b.guesserTeam(playerID)
		if err != nil {
			return err
		}

		guess = strings.TrimSpace(guess)
		if guess == "" {
			return fmt.Errorf("guess of %s: %w", playerID, ErrEmptyGuess)
		}

		if !isGuessCorrect(guess, t.topics[t.gate.Round()-1]) {
			t.Result.addIncorrectGuess()
			return nil
		}

		correct = true
		t.Result.addCorrectGuess()
		b.resolve(t)

		return nil
	})

	return correct, err
}

// Skip gives up the current drawing, only once it is there to look at
func (b *Battle) Skip(playerID string) error {
	return b.update(func() error {
		t, err := b.guesserTeam(playerID)
		if err != nil {
			return err
		}

		t.Result.Skipped++
		b.resolve(t)

		return nil
	})
}

func (b *Battle) Tick() {
	_ = b.update(func() error {
		if b.phase != PhasePlaying {
			return nil
		}

		b.timeLeft--
		if b.timeLeft <= 0 {
			b.finish()
		}

		return nil
	})
}

// resolve closes the guesser's round, the caller holds the lock
func (b *Battle) resolve(t *Team) {
	_ = t.gate.RecordAction(t.Guesser.ID)

	if next, err := t.gate.AdvanceRound(); err == nil {
		t.Round = next
		return
	}

	t.Done = true
	_ = b.solved.Mark(t.Guesser.ID)
	if b.solved.Complete() {
		b.finish()
	}
}

// finish counts unresolved rounds as skipped, the caller holds the lock
func (b *Battle) finish() {
	if b.phase == PhaseFinished {
		return
	}

	for _, t := range b.teams {
		t.Result.Skipped += t.unresolved()
	}

	b.phase = PhaseFinished
	b.timeLeft = 0
}

func (b *Battle) teamOf(playerID string) (*Team, bool) {
	for _, t := range b.teams {
		if t.Drawer.ID == playerID || t.Guesser.ID == playerID {
			return t, true
		}
	}

	return nil, false
}

func (b *Battle) drawerTeam(playerID string) (*Team, error) {
	if b.phase != PhasePlaying {
		return nil, fmt.Errorf("drawer %s: %w", playerID, ErrWrongPhase)
	}

	t, ok := b.teamOf(playerID)
	switch {
	case !ok:
		return nil, fmt.Errorf("drawer %s: %w", playerID, ErrPlayerNotFound)
	case t.Drawer.ID != playerID:
		return nil, fmt.Errorf("drawer %s: %w", playerID, ErrNotDrawer)
	case t.Dissolved:
		return nil, fmt.Errorf("drawer %s: %w", playerID, ErrPlayerNotFound)
	}

	return t, nil
}

func (b *Battle) guesserTeam(playerID string) (*Team, error) {
	if b.phase != PhasePlaying {
		return nil, fmt.Errorf("guesser %s: %w", playerID, ErrWrongPhase)
	}

	t, ok := b.teamOf(playerID)
	switch {
	case !ok:
		return nil, fmt.Errorf("guesser %s: %w", playerID, ErrPlayerNotFound)
	case t.Guesser.ID != playerID:
		return nil, fmt.Errorf("guesser %s: %w", playerID, ErrNotGuesser)
	case t.Dissolved:
		return nil, fmt.Errorf("guesser %s: %w", playerID, ErrPlayerNotFound)
	case t.Done:
		return nil, fmt.Errorf("guesser %s: %w", playerID, ErrTeamDone)
	case !t.drawingReady():
		return nil, fmt.Errorf("guesser %s round %d: %w", playerID, t.gate.Round(), ErrDrawingNotReady)
	}

	return t, nil
}

func (b *Battle) Phase() Phase {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	return b.phase
}

func (b *Battle) Started() bool {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	return len(b.teams) > 0
}

func (b *Battle) TimeLeft() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	return b.timeLeft
}

func (b *Battle) Members() []Member {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	return append([]Member(nil), b.members...)
}

func (b *Battle) HasPlayer(playerID string) bool {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	for _, m := range b.members {
		if m.ID == playerID {
			return true
		}
	}

	return false
}

// AllDrawn reports whether every playing drawer uploaded all rounds
func (b *Battle) AllDrawn() bool {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	return b.drawn.Complete()
}

// Teams returns copies of the teams without their topics
func (b *Battle) Teams() []Team {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	teams := make([]Team, 0, len(b.teams))
	for _, t := range b.teams {
		teams = append(teams, t.clone())
	}

	return teams
}

// Standings ranks the teams still playing by correct guesses
func (b *Battle) Standings() []score.Standing {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	var entries []score.Entry
	for _, t := range b.teams {
		if t.Dissolved {
			continue
		}
		entries = append(entries, score.Entry{PlayerID: t.ID, Name: t.Name(), Score: t.Result.Correct})
	}

	return score.Standings(entries)
}
