package runner_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/petasbytes/lotus/internal/provider"
	"github.com/petasbytes/lotus/internal/runner"
	"github.com/petasbytes/lotus/internal/telemetry"
)

func readEvents(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSubmit_EmitsTurnEvents(t *testing.T) {
	dir := t.TempDir()
	telemetry.Configure(true, dir)
	t.Cleanup(func() { telemetry.Configure(false, "") })

	fc := &fakeCompleter{scripts: []script{
		{parts: []provider.Part{callPart(call("1", "read_file", `{"path":"secret.txt"}`))}},
		{parts: toks("The file says hunter2.")},
	}}
	s := newSession(fc, nil, nil, runner.Options{Model: "m", TokenBudget: 1000})

	_, err := s.Submit(context.Background(), "read secret.txt")
	require.NoError(t, err)

	events := readEvents(t, dir)
	var names []string
	for _, e := range events {
		names = append(names, e["event"].(string))
	}
	assert.Equal(t, []string{
		"local_features", "turn_started", "window_prepared",
		"tool_exec", "window_prepared", "turn_completed",
	}, names)

	turnID := events[0]["turn_id"]
	require.NotEmpty(t, turnID)
	for _, e := range events {
		assert.Equal(t, turnID, e["turn_id"], e["event"])
	}
	last := events[len(events)-1]
	assert.EqualValues(t, 2, last["turns"])
	assert.EqualValues(t, 1, last["tool_calls"])
	assert.Nil(t, last["error"])

	raw, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")
	assert.NotContains(t, string(raw), "secret.txt")
}

func TestSubmit_LogsWindowStats(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fc := &fakeCompleter{scripts: []script{{parts: toks("ok")}}}
	s := newSession(fc, nil, nil, runner.Options{TokenBudget: 100, Logger: zap.New(core)})

	_, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)

	entries := logs.FilterMessage("window prepared").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.EqualValues(t, 100, ctx["budget"])
	assert.EqualValues(t, 1, ctx["groups_in"])
	assert.Equal(t, 1, logs.FilterMessage("turn finished").Len())
}
