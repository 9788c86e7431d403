package editor_test

import (
	"testing"

	"github.com/genagent/agentflow/pkg/editor"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testOutcome struct {
	result *tools.Result
	err    error
}

func inputsWith(key, value string) any {
	return mock.MatchedBy(func(inputs map[string]any) bool {
		return inputs[key] == value
	})
}

// startBlockedTest runs a node test whose backend call waits for release.
func startBlockedTest(t *testing.T, session *editor.Session, b *mockBackend, nodeID, marker string) (chan struct{}, <-chan testOutcome) {
	t.Helper()

	started := make(chan struct{})
	release := make(chan struct{})

	b.On("TestNode", mock.Anything, "api", mock.Anything, inputsWith("call", marker)).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&tools.Result{Status: 200, Data: marker}, nil).Once()

	done := make(chan testOutcome, 1)

	go func() {
		result, err := session.TestNode(t.Context(), nodeID, map[string]any{"call": marker})
		done <- testOutcome{result: result, err: err}
	}()

	<-started

	return release, done
}

func TestSession_NewerTestMakesOlderStale(t *testing.T) {
	session, b := newTestSession(t)

	tool, err := session.AddNode(models.NodeTypeAPITool, models.Position{})
	require.NoError(t, err)

	release, first := startBlockedTest(t, session, b, tool.NodeID(), "first")
	assert.True(t, session.Testing(tool.NodeID()))

	b.On("TestNode", mock.Anything, "api", mock.Anything, inputsWith("call", "second")).
		Return(&tools.Result{Status: 200, Data: "second"}, nil).Once()

	result, err := session.TestNode(t.Context(), tool.NodeID(), map[string]any{"call": "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", result.Data)

	close(release)

	outcome := <-first
	require.ErrorIs(t, outcome.err, editor.ErrStaleResult)
	assert.Nil(t, outcome.result)
	assert.False(t, session.Testing(tool.NodeID()))
}

func TestSession_CancelTest(t *testing.T) {
	session, b := newTestSession(t)

	tool, err := session.AddNode(models.NodeTypeAPITool, models.Position{})
	require.NoError(t, err)

	release, pending := startBlockedTest(t, session, b, tool.NodeID(), "cancelled")

	assert.True(t, session.CancelTest(tool.NodeID()))
	assert.False(t, session.CancelTest(tool.NodeID()))

	close(release)

	outcome := <-pending
	require.ErrorIs(t, outcome.err, editor.ErrStaleResult)
}

func TestSession_LoadMakesPendingTestStale(t *testing.T) {
	session, b := newTestSession(t)

	session.SetDetails("Order Lookup", "")

	tool, err := session.AddNode(models.NodeTypeAPITool, models.Position{})
	require.NoError(t, err)

	exported, err := session.Export()
	require.NoError(t, err)

	release, pending := startBlockedTest(t, session, b, tool.NodeID(), "before-load")

	// The reloaded graph still holds a node with the same id.
	_, err = session.Import(exported)
	require.NoError(t, err)
	assert.False(t, session.Testing(tool.NodeID()))

	close(release)

	outcome := <-pending
	require.ErrorIs(t, outcome.err, editor.ErrStaleResult)
	assert.Nil(t, outcome.result)

	b.On("TestNode", mock.Anything, "api", mock.Anything, inputsWith("call", "after-load")).
		Return(&tools.Result{Status: 200, Data: "after-load"}, nil).Once()

	result, err := session.TestNode(t.Context(), tool.NodeID(), map[string]any{"call": "after-load"})
	require.NoError(t, err)
	assert.Equal(t, "after-load", result.Data)
}

func TestSession_TestsOnDifferentNodesAreIndependent(t *testing.T) {
	session, b := newTestSession(t)

	slow, err := session.AddNode(models.NodeTypeAPITool, models.Position{})
	require.NoError(t, err)

	fast, err := session.AddNode(models.NodeTypeAPITool, models.Position{X: 300})
	require.NoError(t, err)

	release, pending := startBlockedTest(t, session, b, slow.NodeID(), "slow")

	b.On("TestNode", mock.Anything, "api", mock.Anything, inputsWith("call", "fast")).
		Return(&tools.Result{Status: 200, Data: "fast"}, nil).Once()

	result, err := session.TestNode(t.Context(), fast.NodeID(), map[string]any{"call": "fast"})
	require.NoError(t, err)
	assert.Equal(t, "fast", result.Data)

	// Editing is not blocked by the pending test.
	require.NoError(t, slow.Move(models.Position{X: 50, Y: 50}))

	close(release)

	outcome := <-pending
	require.NoError(t, outcome.err)
	assert.Equal(t, "slow", outcome.result.Data)
}

func TestSession_TestNodeErrors(t *testing.T) {
	session, _ := newTestSession(t)

	_, err := session.TestNode(t.Context(), "missing", nil)
	require.ErrorIs(t, err, graph.ErrNodeNotFound)

	input, err := session.AddNode(models.NodeTypeChatInput, models.Position{})
	require.NoError(t, err)

	_, err = session.TestNode(t.Context(), input.NodeID(), nil)
	require.ErrorIs(t, err, editor.ErrNotTestable)
}
