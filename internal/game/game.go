// Package game owns the authoritative game phase, the round index and the
// per-round answer ledger. State is mutated only through Machine methods,
// which also publish every transition to subscribers.
package game

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

// State enumerates the game phases.
type State string

const (
	StateLobby            State = "lobby"
	StateGameStarting     State = "gameStarting"
	StateAnswerQuestion   State = "answerQuestion"
	StateWaitingQuestion  State = "waitingQuestion"
	StateWatchingQuestion State = "watchingQuestion"
)

var (
	ErrNoCurrentQuestion = errors.New("no current question")
	ErrAlreadyAnswered   = errors.New("already answered")
	ErrQuestionExists    = errors.New("question already exists for round")
)

const subscriberBuffer = 16

// round holds one question and the answers keyed by client id.
type round struct {
	question protocol.QuestionInfo
	openedAt time.Time
	answers  map[string]protocol.AnswerInfo
}

// Machine is the game state machine. All fields are guarded by mu; the lock
// is never held across an await point.
type Machine struct {
	mu          sync.Mutex
	state       State
	settings    protocol.GameSettings
	roundIndex  uint64
	endGame     bool
	rounds      map[uint64]*round
	timerCancel chan struct{}
	subs        []chan State
	now         func() time.Time
}

func NewMachine() *Machine {
	return &Machine{
		state:  StateLobby,
		rounds: make(map[uint64]*round),
		now:    time.Now,
	}
}

// Subscribe returns a channel receiving every subsequent state transition.
// Slow subscribers lose transitions rather than block the machine, the same
// policy the connection broadcast uses for slow clients.
func (m *Machine) Subscribe() <-chan State {
	ch := make(chan State, subscriberBuffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// setState publishes under the lock so subscribers observe transitions in
// the order they happened.
func (m *Machine) setState(s State) {
	m.state = s
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Settings() protocol.GameSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *Machine) SetSettings(s protocol.GameSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

// StartGame moves Lobby -> GameStarting, resetting the round index and the
// ledger. It reports false from any other state, with no state mutation.
func (m *Machine) StartGame(settings protocol.GameSettings) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLobby {
		return false
	}
	m.settings = settings
	m.roundIndex = 0
	m.rounds = make(map[uint64]*round)
	m.endGame = false
	m.setState(StateGameStarting)
	return true
}

// StopGame marks the pending end-game intent and cancels any in-flight round
// timer. The transition to Lobby happens at the next decision point, not
// here. Reports false when already in Lobby.
func (m *Machine) StopGame() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateLobby {
		return false
	}
	m.endGame = true
	m.cancelTimerLocked()
	return true
}

// SetQuestion records the question for the current round and opens it.
// When the end-game marker is set the marker is consumed and the machine
// routes to Lobby instead; opened is false and no round starts. A second
// question for the same round is rejected with ErrQuestionExists.
func (m *Machine) SetQuestion(q protocol.QuestionInfo) (opened bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.endGame {
		m.endGame = false
		m.setState(StateLobby)
		return false, nil
	}
	if _, ok := m.rounds[m.roundIndex]; ok {
		return false, ErrQuestionExists
	}

	m.rounds[m.roundIndex] = &round{
		question: q,
		openedAt: m.now(),
		answers:  make(map[string]protocol.AnswerInfo),
	}
	m.setState(StateAnswerQuestion)

	cancel := make(chan struct{})
	m.timerCancel = cancel
	duration := time.Duration(m.settings.RoundDuration) * time.Second
	go m.runRoundTimer(duration, cancel)
	return true, nil
}

// runRoundTimer bounds how long the round stays open. Expiry and
// cancellation converge on the same completion logic: the end-game marker is
// the deciding fork, then the remaining round count.
func (m *Machine) runRoundTimer(d time.Duration, cancel <-chan struct{}) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-cancel:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.timerCancel = nil
	switch {
	case m.endGame:
		m.endGame = false
		m.setState(StateLobby)
	case m.roundIndex+1 >= m.settings.RoundsCount:
		m.setState(StateLobby)
	default:
		m.roundIndex++
		m.setState(StateWaitingQuestion)
	}
}

// EndRoundEarly cancels the active round timer; the timer goroutine then
// runs the usual completion logic. Reports false outside AnswerQuestion.
func (m *Machine) EndRoundEarly() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAnswerQuestion {
		return false
	}
	m.cancelTimerLocked()
	return true
}

func (m *Machine) cancelTimerLocked() {
	if m.timerCancel != nil {
		close(m.timerCancel)
		m.timerCancel = nil
	}
}

// RecordAnswer scores and stores one client's answer for the active round.
// Correctness is membership of the submitted text in the question's accepted
// reading set.
func (m *Machine) RecordAnswer(clientID, answer string) (protocol.AnswerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.rounds[m.roundIndex]
	if !ok {
		return protocol.AnswerInfo{}, ErrNoCurrentQuestion
	}
	if _, ok := current.answers[clientID]; ok {
		return protocol.AnswerInfo{}, ErrAlreadyAnswered
	}

	correct := false
	for _, reading := range current.question.WordInfo.Readings {
		if reading.Reading == answer {
			correct = true
			break
		}
	}

	info := protocol.AnswerInfo{
		ID:         clientID,
		Answer:     answer,
		IsCorrect:  correct,
		AnswerTime: uint64(m.now().Sub(current.openedAt).Milliseconds()),
	}
	current.answers[clientID] = info
	return info, nil
}

// AllAnswered reports whether the active round has an answer from every one
// of the registered clients counted by the caller. False when no round is
// open.
func (m *Machine) AllAnswered(registered int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.rounds[m.roundIndex]
	if !ok {
		return false
	}
	return len(current.answers) == registered
}

func (m *Machine) CurrentRound() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roundIndex
}

func (m *Machine) QuestionForRound(index uint64) (protocol.QuestionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[index]
	if !ok {
		return protocol.QuestionInfo{}, false
	}
	return r.question, true
}

// AnswersForRound returns the recorded answers ordered by submission time.
func (m *Machine) AnswersForRound(index uint64) []protocol.AnswerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[index]
	if !ok {
		return nil
	}
	out := make([]protocol.AnswerInfo, 0, len(r.answers))
	for _, a := range r.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AnswerTime != out[j].AnswerTime {
			return out[i].AnswerTime < out[j].AnswerTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}
