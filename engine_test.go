// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig_test

import (
	"testing"

	. "github.com/IgorLTS10/multi-sig-wallet"
	"github.com/IgorLTS10/multi-sig-wallet/testutil"

	"github.com/stretchr/testify/require"
)

type testExecutor struct {
	invocations int
	fail        bool
	panics      bool
	callback    func()

	lastTarget  Target
	lastValue   uint64
	lastPayload []byte
}

func (ex *testExecutor) Run(target Target, value uint64, payload []byte) bool {
	ex.invocations++
	ex.lastTarget = target
	ex.lastValue = value
	ex.lastPayload = payload
	if ex.callback != nil {
		ex.callback()
	}
	if ex.panics {
		panic("executor crashed")
	}
	return !ex.fail
}

type recordingNotifier struct {
	events []*Event
}

func (n *recordingNotifier) Notify(event *Event) {
	n.events = append(n.events, event)
}

func newTestEngine(t *testing.T, conf Config) *Engine {
	if conf.Logger == nil {
		conf.Logger = testutil.MakeLogger(t)
	}
	if conf.Executor == nil {
		conf.Executor = &testExecutor{}
	}
	e, err := NewEngine(conf)
	require.NoError(t, err)
	require.NoError(t, e.Start())
	return e
}

func approvalCount(t *testing.T, e *Engine, index uint64) int {
	action, err := e.Action(index)
	require.NoError(t, err)
	return action.ApprovalCount()
}

func TestEngineSimpleFlow(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	executor := &testExecutor{}
	e := newTestEngine(t, Config{
		Executor: executor,
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	index, err := e.Propose(a, Target{0xaa}, 1, []byte{})
	require.NoError(err)
	require.Equal(uint64(0), index)
	require.Equal(uint64(1), e.ActionCount())

	require.NoError(e.Approve(b, 0))
	require.Equal(1, approvalCount(t, e, 0))

	require.ErrorIs(e.Execute(a, 0), ErrQuorumNotMet)
	require.Zero(executor.invocations)

	require.NoError(e.Approve(c, 0))
	require.Equal(2, approvalCount(t, e, 0))

	require.NoError(e.Execute(a, 0))
	require.Equal(1, executor.invocations)
	require.Equal(Target{0xaa}, executor.lastTarget)
	require.Equal(uint64(1), executor.lastValue)

	action, err := e.Action(0)
	require.NoError(err)
	require.True(action.Executed())

	// a second execute never reaches the executor again
	require.ErrorIs(e.Execute(a, 0), ErrAlreadyExecuted)
	require.Equal(1, executor.invocations)
}

func TestEngineDuplicateApproval(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	e := newTestEngine(t, Config{
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)

	require.NoError(e.Approve(a, 0))
	require.ErrorIs(e.Approve(a, 0), ErrDuplicateApproval)
	require.Equal(1, approvalCount(t, e, 0))
}

func TestEngineApproveRevokeRoundTrip(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	e := newTestEngine(t, Config{
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)

	require.ErrorIs(e.Revoke(a, 0), ErrNotApproved)

	require.NoError(e.Approve(a, 0))
	approved, err := e.Approved(0, a)
	require.NoError(err)
	require.True(approved)

	require.NoError(e.Revoke(a, 0))
	approved, err = e.Approved(0, a)
	require.NoError(err)
	require.False(approved)
	require.Zero(approvalCount(t, e, 0))

	require.ErrorIs(e.Revoke(a, 0), ErrNotApproved)
}

func TestEngineRejectsNonSigners(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}
	d := SignerID{4}

	notifier := &recordingNotifier{}
	e := newTestEngine(t, Config{
		Notifier: notifier,
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
	emitted := len(notifier.events)

	_, err = e.Propose(d, Target{0xbb}, 2, nil)
	require.ErrorIs(err, ErrUnauthorized)
	require.ErrorIs(e.Approve(d, 0), ErrUnauthorized)
	require.ErrorIs(e.Revoke(d, 0), ErrUnauthorized)
	require.ErrorIs(e.Execute(d, 0), ErrUnauthorized)
	require.ErrorIs(e.AddSigner(d, SignerID{5}), ErrUnauthorized)
	require.ErrorIs(e.RemoveSigner(d, a), ErrUnauthorized)

	// rejected transitions mutate nothing and emit nothing
	require.Equal(uint64(1), e.ActionCount())
	require.Zero(approvalCount(t, e, 0))
	require.Len(notifier.events, emitted)
}

func TestEngineUnknownAction(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	e := newTestEngine(t, Config{
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	require.ErrorIs(e.Approve(a, 7), ErrUnknownAction)
	require.ErrorIs(e.Revoke(a, 7), ErrUnknownAction)
	require.ErrorIs(e.Execute(a, 7), ErrUnknownAction)
	_, err := e.Action(7)
	require.ErrorIs(err, ErrUnknownAction)
}

func TestEngineExecutorFailure(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	executor := &testExecutor{fail: true}
	notifier := &recordingNotifier{}
	e := newTestEngine(t, Config{
		Executor: executor,
		Notifier: notifier,
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
	require.NoError(e.Approve(a, 0))
	require.NoError(e.Approve(b, 0))

	emitted := len(notifier.events)
	require.ErrorIs(e.Execute(c, 0), ErrExecutionFailed)
	require.Equal(1, executor.invocations)

	// no rollback: the action stays executed and can never be retried
	action, err := e.Action(0)
	require.NoError(err)
	require.True(action.Executed())
	require.ErrorIs(e.Execute(c, 0), ErrAlreadyExecuted)
	require.Equal(1, executor.invocations)

	// no execution event on failure
	require.Len(notifier.events, emitted)
}

func TestEngineExecutorPanic(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	executor := &testExecutor{panics: true}
	logger := testutil.MakeLogger(t)
	logger.Silence()
	e := newTestEngine(t, Config{
		Logger:   logger,
		Executor: executor,
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
	require.NoError(e.Approve(a, 0))
	require.NoError(e.Approve(b, 0))

	require.ErrorIs(e.Execute(a, 0), ErrExecutionFailed)

	action, err := e.Action(0)
	require.NoError(err)
	require.True(action.Executed())
}

func TestEngineExecutedActionIsFrozen(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	executor := &testExecutor{}
	e := newTestEngine(t, Config{
		Executor: executor,
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
	require.NoError(e.Approve(a, 0))
	require.NoError(e.Approve(b, 0))
	require.NoError(e.Execute(a, 0))

	// execution is terminal: approval records can no longer change
	require.ErrorIs(e.Approve(c, 0), ErrAlreadyExecuted)
	require.ErrorIs(e.Revoke(a, 0), ErrAlreadyExecuted)
	require.Equal(2, approvalCount(t, e, 0))
	require.Equal(1, executor.invocations)
}

func TestEngineRejectsReentrantCalls(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	executor := &testExecutor{}
	e := newTestEngine(t, Config{
		Executor: executor,
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
	_, err = e.Propose(a, Target{0xbb}, 2, nil)
	require.NoError(err)
	for _, signer := range []SignerID{a, b} {
		require.NoError(e.Approve(signer, 0))
		require.NoError(e.Approve(signer, 1))
	}

	// the executor tries to mutate the engine while its own execution is
	// still in flight
	var reentrantErrs []error
	executor.callback = func() {
		reentrantErrs = append(reentrantErrs,
			e.Approve(c, 1),
			e.Revoke(a, 1),
			e.Execute(b, 1),
			e.AddSigner(a, SignerID{4}),
		)
	}

	require.NoError(e.Execute(a, 0))
	require.Len(reentrantErrs, 4)
	for _, err := range reentrantErrs {
		require.ErrorIs(err, ErrExecutionInProgress)
	}

	// action 1 was untouched by the rejected calls and still works
	require.Equal(2, approvalCount(t, e, 1))
	executor.callback = nil
	require.NoError(e.Execute(b, 1))
	require.Equal(2, executor.invocations)
}

func TestEngineThresholdReadAtExecutionTime(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}
	d := SignerID{4}

	executor := &testExecutor{}
	e := newTestEngine(t, Config{
		Executor: executor,
		Signers:  []SignerID{a, b, c, d},
		Required: 4,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
	require.NoError(e.Approve(a, 0))
	require.NoError(e.Approve(b, 0))
	require.NoError(e.Approve(c, 0))

	require.ErrorIs(e.Execute(a, 0), ErrQuorumNotMet)

	// removing the fourth signer clamps the threshold to 3, and Execute
	// reads the threshold live
	require.NoError(e.RemoveSigner(a, d))
	require.Equal(3, e.Threshold())

	require.NoError(e.Execute(a, 0))
	require.Equal(1, executor.invocations)
}

func TestEngineRemovedSignerApprovalPersists(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}
	d := SignerID{4}

	executor := &testExecutor{}
	e := newTestEngine(t, Config{
		Executor: executor,
		Signers:  []SignerID{a, b, c, d},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
	require.NoError(e.Approve(d, 0))
	require.NoError(e.Approve(b, 0))

	require.NoError(e.RemoveSigner(a, d))
	require.False(e.IsSigner(d))

	// d's approval record survives its removal and still counts
	approved, err := e.Approved(0, d)
	require.NoError(err)
	require.True(approved)
	require.Equal(2, approvalCount(t, e, 0))

	require.NoError(e.Execute(a, 0))
	require.Equal(1, executor.invocations)
}

func TestEngineMembership(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}
	d := SignerID{4}

	e := newTestEngine(t, Config{
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	require.ErrorIs(e.AddSigner(a, SignerID{}), ErrInvalidIdentity)
	require.ErrorIs(e.AddSigner(a, b), ErrAlreadySigner)
	require.ErrorIs(e.RemoveSigner(a, d), ErrUnknownSigner)
	require.ErrorIs(e.RemoveSigner(a, c), ErrMinimumSigners)

	require.NoError(e.AddSigner(a, d))
	require.ElementsMatch([]SignerID{a, b, c, d}, e.Members())

	require.NoError(e.RemoveSigner(b, d))
	require.ElementsMatch([]SignerID{a, b, c}, e.Members())
}

func TestEngineEvents(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}
	d := SignerID{4}

	notifier := &recordingNotifier{}
	e := newTestEngine(t, Config{
		Notifier: notifier,
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})

	_, err := e.Propose(a, Target{0xaa}, 7, []byte("payout"))
	require.NoError(err)
	require.NoError(e.Approve(b, 0))
	require.NoError(e.Revoke(b, 0))
	require.NoError(e.Approve(b, 0))
	require.NoError(e.Approve(c, 0))
	require.NoError(e.Execute(a, 0))
	require.NoError(e.AddSigner(a, d))
	require.NoError(e.RemoveSigner(b, d))

	require.Len(notifier.events, 8)

	proposed := notifier.events[0].ActionProposed
	require.NotNil(proposed)
	require.Equal(a, proposed.Caller)
	require.Equal(uint64(0), proposed.Index)
	require.Equal(Target{0xaa}, proposed.Target)
	require.Equal(uint64(7), proposed.Value)
	require.Equal([]byte("payout"), proposed.Payload)

	approvedEvent := notifier.events[1].ActionApproved
	require.NotNil(approvedEvent)
	require.Equal(b, approvedEvent.Caller)
	require.Equal(1, approvedEvent.Count)

	revoked := notifier.events[2].ActionRevoked
	require.NotNil(revoked)
	require.Equal(b, revoked.Caller)
	require.Zero(revoked.Count)

	executed := notifier.events[5].ActionExecuted
	require.NotNil(executed)
	require.Equal(a, executed.Caller)
	require.Equal(uint64(0), executed.Index)

	added := notifier.events[6].SignerAdded
	require.NotNil(added)
	require.Equal(a, added.Caller)
	require.Equal(d, added.ID)

	removed := notifier.events[7].SignerRemoved
	require.NotNil(removed)
	require.Equal(b, removed.Caller)
	require.Equal(d, removed.ID)
	require.Equal(2, removed.Threshold)
}

func TestEngineRequiresStart(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	e, err := NewEngine(Config{
		Logger:   testutil.MakeLogger(t),
		Executor: &testExecutor{},
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})
	require.NoError(err)

	_, err = e.Propose(a, Target{0xaa}, 1, nil)
	require.ErrorIs(err, ErrNotStarted)
	require.ErrorIs(e.Approve(a, 0), ErrNotStarted)

	require.NoError(e.Start())
	_, err = e.Propose(a, Target{0xaa}, 1, nil)
	require.NoError(err)
}

func TestNewEngineInvalidConfiguration(t *testing.T) {
	require := require.New(t)

	a := SignerID{1}
	b := SignerID{2}
	c := SignerID{3}

	_, err := NewEngine(Config{
		Executor: &testExecutor{},
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})
	require.ErrorIs(err, ErrInvalidConfiguration)

	_, err = NewEngine(Config{
		Logger:   testutil.MakeLogger(t),
		Signers:  []SignerID{a, b, c},
		Required: 2,
	})
	require.ErrorIs(err, ErrInvalidConfiguration)

	_, err = NewEngine(Config{
		Logger:   testutil.MakeLogger(t),
		Executor: &testExecutor{},
		Signers:  []SignerID{a, b},
		Required: 2,
	})
	require.ErrorIs(err, ErrInvalidConfiguration)
}
