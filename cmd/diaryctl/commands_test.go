package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cognitivediary/application/ports"
	"cognitivediary/infrastructure/persistence/memory"
	"cognitivediary/interfaces/http/rest"
	"cognitivediary/interfaces/http/rest/handlers"
	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingLLM struct {
	mu     sync.Mutex
	chats  []ports.ChatRequest
	chains []ports.ChainChatRequest
}

func (l *recordingLLM) Chat(ctx context.Context, req ports.ChatRequest) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chats = append(l.chats, req)
	return "single answer", nil
}

func (l *recordingLLM) ChainChat(ctx context.Context, req ports.ChainChatRequest) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chains = append(l.chains, req)
	return "chain answer", nil
}

func newBackend(t *testing.T) (*httptest.Server, *recordingLLM) {
	t.Helper()
	repo := memory.NewSnapshotRepository(ports.SystemClock{})
	llm := &recordingLLM{}
	router := rest.NewRouter(rest.Dependencies{
		Backend: handlers.NewBackendHandler(repo, llm, zap.NewNop()),
	}, zap.NewNop())
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	nodes := []api.Node{
		{ID: "1", Type: api.NodeTypeThought, Data: api.NodeData{Label: "I missed the deadline"}},
		{ID: "2", Type: api.NodeTypeThought, Position: api.XY{X: 350}, Data: api.NodeData{Label: "They think I'm lazy"}},
		{ID: "3", Type: api.NodeTypeThought, Position: api.XY{X: 700}, Data: api.NodeData{Label: "I'll be fired"}},
	}
	edges := []api.Edge{
		{ID: "e1-2", Source: "1", Target: "2"},
		{ID: "e2-3", Source: "2", Target: "3"},
	}
	g, _, err := api.ToGraph(nodes, edges)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), "alice", g)
	require.NoError(t, err)
	return srv, llm
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoad(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, "load", "alice", "--backend", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "I missed the deadline")
	assert.Contains(t, out, "1 -> 2 (e1-2)")

	out, err = run(t, "load", "alice", "--backend", srv.URL, "-o", "json")
	require.NoError(t, err)
	var graph api.GraphResponse
	require.NoError(t, json.Unmarshal([]byte(out), &graph))
	assert.Len(t, graph.Nodes, 3)

	_, err = run(t, "load", "bob", "--backend", srv.URL)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTrace(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := run(t, "trace", "alice", "3", "--backend", srv.URL)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1. [1] I missed the deadline", lines[0])
	assert.Equal(t, "3. [3] I'll be fired", lines[2])

	_, err = run(t, "trace", "alice", "9", "--backend", srv.URL)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestAskAndChain(t *testing.T) {
	srv, llm := newBackend(t)

	out, err := run(t, "ask", "alice", "2", "--backend", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "single answer\n", out)
	require.Len(t, llm.chats, 1)
	assert.Equal(t, "They think I'm lazy", llm.chats[0].Message)
	assert.Equal(t, 1000, llm.chats[0].MaxTokens)

	out, err = run(t, "chain", "alice", "3", "--backend", srv.URL, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"answer": "chain answer"`)
	require.Len(t, llm.chains, 1)
	req := llm.chains[0]
	require.Len(t, req.ChainNodes, 3)
	assert.Equal(t, "1", req.ChainNodes[0].ID)
	assert.Equal(t, "I'll be fired", req.TargetNodeContent)

	_, err = run(t, "chain", "alice", "1", "--backend", srv.URL)
	assert.True(t, pkgerrors.IsEmptyChain(err))
}

func TestToken(t *testing.T) {
	out, err := run(t, "token", "alice", "--secret", "s")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))

	_, err = run(t, "token", "alice", "--secret", "")
	assert.Error(t, err)
}
