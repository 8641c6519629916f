package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autodev/internal/config"
	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
	"github.com/ChamsBouzaiene/autodev/internal/oracle"
	"github.com/ChamsBouzaiene/autodev/internal/prompts"
	"github.com/ChamsBouzaiene/autodev/internal/toolchain"
)

const routesJSON = `[
  {"is_route_dynamic": false, "method": "GET", "request_body": null, "response": [], "route": "/items"},
  {"is_route_dynamic": false, "method": "POST", "request_body": {"name": "x"}, "response": {}, "route": "/items"},
  {"is_route_dynamic": true, "method": "GET", "request_body": null, "response": {}, "route": "/items/:id"},
  {"is_route_dynamic": false, "method": "GET", "request_body": null, "response": {"ok": true}, "route": "/health"}
]`

var (
	buildOK     = toolchain.BuildResult{Success: true}
	buildBroken = toolchain.BuildResult{ExitCode: 101, Stderr: "error[E0425]: cannot find value `x`"}
)

type backendFixture struct {
	oracle    *scriptedOracle
	store     *memStore
	tc        *mockToolchain
	prober    *mockProber
	confirmer *staticConfirmer
	hook      *recordingHook
	agent     *BackendDeveloper
}

func newBackendFixture(builds ...toolchain.BuildResult) *backendFixture {
	f := &backendFixture{
		oracle: &scriptedOracle{answers: map[string][]string{
			prompts.BackendWebserverCode:  {"```rust\nfn main() { /* v1 */ }\n```"},
			prompts.ImprovedWebserverCode: {"fn main() { /* improved */ }"},
			prompts.FixedCode:             {"fn main() { /* fixed */ }"},
			prompts.RESTAPIEndpoints:      {routesJSON},
		}},
		store:     &memStore{template: "// template"},
		tc:        &mockToolchain{results: builds},
		prober:    &mockProber{},
		confirmer: &staticConfirmer{answer: true},
		hook:      &recordingHook{},
	}
	f.agent = NewBackendDeveloper(BackendDeps{
		Oracle:    f.oracle,
		Store:     f.store,
		Toolchain: f.tc,
		Prober:    f.prober,
		Confirmer: f.confirmer,
		Hooks:     f.hook,
	}, BackendSettings{
		MaxBugFixes:  10,
		Host:         "localhost",
		Port:         8000,
		ProbeTimeout: time.Second,
	})
	return f
}

func TestBackendDeveloper_HappyPath(t *testing.T) {
	f := newBackendFixture(buildOK)
	fs := factsheet.New("build a todo api")

	require.NoError(t, f.agent.Execute(context.Background(), fs))

	assert.Equal(t, engine.StateFinished, f.agent.State)
	assert.Equal(t, "fn main() { /* improved */ }", fs.Code())
	assert.Equal(t, []string{"fn main() { /* v1 */ }", "fn main() { /* improved */ }"}, f.store.writes)

	require.Len(t, fs.APIEndpointSchema, 2)
	assert.Equal(t, "/items", fs.APIEndpointSchema[0].Route)
	assert.Equal(t, "/health", fs.APIEndpointSchema[1].Route)
	assert.Equal(t, routesJSON, f.store.schema)

	assert.Equal(t, []string{"http://localhost:8000/items", "http://localhost:8000/health"}, f.prober.urls)
	require.Len(t, f.tc.procs, 1)
	assert.GreaterOrEqual(t, f.tc.procs[0].killCount(), 1)
	assert.Empty(t, f.agent.Issues())

	assert.Equal(t, []engine.AgentState{engine.StateWorking, engine.StateUnitTesting, engine.StateFinished}, f.hook.states)
}

func TestBackendDeveloper_PromptInputs(t *testing.T) {
	f := newBackendFixture(buildBroken, buildOK)
	fs := factsheet.New("build a todo api")

	require.NoError(t, f.agent.Execute(context.Background(), fs))

	byPrompt := make(map[string]oracle.Task)
	for _, task := range f.oracle.tasks {
		byPrompt[task.PromptID] = task
	}
	assert.Equal(t, "CODE TEMPLATE: // template \n PROJECT_DESCRIPTION: build a todo api \n",
		byPrompt[prompts.BackendWebserverCode].Input)
	assert.True(t, strings.HasPrefix(byPrompt[prompts.ImprovedWebserverCode].Input,
		"CODE TEMPLATE: fn main() { /* v1 */ } \n PROJECT_DESCRIPTION: {\"project_description\":\"build a todo api\""))
	assert.Equal(t, "BROKEN_CODE: fn main() { /* improved */ } \n ERROR_BUGS: error[E0425]: cannot find value `x` \n THIS FUNCTION ONLY OUTPUTS CODE. JUST OUTPUT THE CODE.",
		byPrompt[prompts.FixedCode].Input)
	assert.Equal(t, "CODE_INPUT: fn main() { /* fixed */ }", byPrompt[prompts.RESTAPIEndpoints].Input)
}

func TestBackendDeveloper_RepairLoop(t *testing.T) {
	f := newBackendFixture(buildBroken, buildBroken, buildOK)
	fs := factsheet.New("d")

	require.NoError(t, f.agent.Execute(context.Background(), fs))

	var counts []int
	for _, b := range f.hook.builds {
		counts = append(counts, b.BugCount)
	}
	assert.Equal(t, []int{1, 2, 0}, counts)
	assert.Equal(t, 0, f.agent.BugCount())

	assert.Equal(t, 1, f.oracle.count(prompts.ImprovedWebserverCode))
	assert.Equal(t, 2, f.oracle.count(prompts.FixedCode))
	assert.Equal(t, 3, f.tc.builds)
	assert.Equal(t, 3, f.confirmer.calls)
}

func TestBackendDeveloper_TooManyBugs(t *testing.T) {
	f := newBackendFixture(buildBroken)
	fs := factsheet.New("d")

	err := f.agent.Execute(context.Background(), fs)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, 11, buildErr.Attempts)
	assert.Equal(t, buildBroken.Stderr, buildErr.Stderr)
	assert.Equal(t, 11, f.tc.builds)
	assert.Equal(t, 10, f.oracle.count(prompts.FixedCode))
	assert.Equal(t, 11, f.agent.BugCount())
	assert.Empty(t, f.tc.procs)
	assert.Nil(t, fs.APIEndpointSchema)
	assert.Empty(t, f.hook.issues, "a failed build is not an endpoint issue")
	assert.Contains(t, f.hook.notices, "Backend code unit testing: too many errors")

	var stage *StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, engine.StateUnitTesting, stage.State)
}

func TestBackendDeveloper_SafetyGate(t *testing.T) {
	tests := []struct {
		name    string
		answer  bool
		err     error
		wantErr error
	}{
		{name: "denied", answer: false, wantErr: ErrSafetyGateDenied},
		{name: "confirmer failure", err: errors.New("input closed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBackendFixture(buildOK)
			f.confirmer.answer, f.confirmer.err = tt.answer, tt.err

			err := f.agent.Execute(context.Background(), factsheet.New("d"))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 0, f.tc.builds)
			assert.Empty(t, f.tc.procs)
		})
	}
}

func TestBackendDeveloper_ProbeFailuresAreNotFatal(t *testing.T) {
	f := newBackendFixture(buildOK)
	f.prober.answers = map[string]probeAnswer{
		"http://localhost:8000/items":  {err: errTransport},
		"http://localhost:8000/health": {status: 500},
	}
	fs := factsheet.New("d")

	require.NoError(t, f.agent.Execute(context.Background(), fs))

	issues := f.agent.Issues()
	require.Len(t, issues, 2)
	assert.ErrorIs(t, issues[0].Err, errTransport)
	assert.Equal(t, 500, issues[1].Status)
	assert.Len(t, f.hook.issues, 2)

	// Probing continues after the transport error killed the server.
	assert.Len(t, f.prober.urls, 2)
	require.Len(t, f.tc.procs, 1)
	assert.GreaterOrEqual(t, f.tc.procs[0].killCount(), 2)
	assert.Equal(t, routesJSON, f.store.schema)
}

func TestBackendDeveloper_KillsServerOnFailure(t *testing.T) {
	t.Run("schema save fails", func(t *testing.T) {
		f := newBackendFixture(buildOK)
		f.store.schemaErr = errors.New("disk full")

		err := f.agent.Execute(context.Background(), factsheet.New("d"))
		require.Error(t, err)
		require.Len(t, f.tc.procs, 1)
		assert.GreaterOrEqual(t, f.tc.procs[0].killCount(), 1)
	})

	t.Run("cancelled while probing", func(t *testing.T) {
		f := newBackendFixture(buildOK)
		ctx, cancel := context.WithCancel(context.Background())
		f.prober.onProbe = func(string) { cancel() }
		f.prober.answers = map[string]probeAnswer{
			"http://localhost:8000/items": {err: context.Canceled},
		}

		err := f.agent.Execute(ctx, factsheet.New("d"))
		assert.ErrorIs(t, err, context.Canceled)
		require.Len(t, f.tc.procs, 1)
		assert.GreaterOrEqual(t, f.tc.procs[0].killCount(), 1)
		assert.Empty(t, f.store.schema)
	})

	t.Run("cancelled during settle", func(t *testing.T) {
		f := newBackendFixture(buildOK)
		f.agent.settings.SettleDelay = time.Hour
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := f.agent.Execute(ctx, factsheet.New("d"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		require.Len(t, f.tc.procs, 1)
		assert.GreaterOrEqual(t, f.tc.procs[0].killCount(), 1)
		assert.Empty(t, f.prober.urls)
	})
}

func TestBackendDeveloper_InfrastructureErrors(t *testing.T) {
	t.Run("toolchain missing", func(t *testing.T) {
		f := newBackendFixture(buildOK)
		f.tc.buildErr = toolchain.ErrUnknownProject

		err := f.agent.Execute(context.Background(), factsheet.New("d"))
		assert.ErrorIs(t, err, toolchain.ErrUnknownProject)
		assert.Equal(t, 0, f.agent.BugCount())
	})

	t.Run("server does not start", func(t *testing.T) {
		f := newBackendFixture(buildOK)
		f.tc.startErr = errors.New("cargo: not found")

		err := f.agent.Execute(context.Background(), factsheet.New("d"))
		assert.Error(t, err)
		assert.Empty(t, f.prober.urls)
	})

	t.Run("template missing", func(t *testing.T) {
		f := newBackendFixture(buildOK)
		f.store.templateErr = errors.New("no such file")

		err := f.agent.Execute(context.Background(), factsheet.New("d"))
		assert.Error(t, err)
		assert.Empty(t, f.oracle.tasks)
	})

	t.Run("route answer not decodable", func(t *testing.T) {
		f := newBackendFixture(buildOK)
		f.oracle.answers[prompts.RESTAPIEndpoints] = []string{"GET /items"}

		err := f.agent.Execute(context.Background(), factsheet.New("d"))
		var decErr *oracle.DecodeError
		assert.ErrorAs(t, err, &decErr)
		assert.Empty(t, f.tc.procs)
	})
}

func TestBackendSettingsFrom(t *testing.T) {
	s := BackendSettingsFrom(config.Default())
	assert.Equal(t, BackendSettings{
		MaxBugFixes:  10,
		Host:         "localhost",
		Port:         8000,
		SettleDelay:  5 * time.Second,
		ProbeTimeout: 5 * time.Second,
	}, s)
}
