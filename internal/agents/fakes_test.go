package agents

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/oracle"
	"github.com/ChamsBouzaiene/autodev/internal/sandbox"
	"github.com/ChamsBouzaiene/autodev/internal/toolchain"
)

// scriptedOracle answers by prompt ID. The last scripted answer repeats.
type scriptedOracle struct {
	answers map[string][]string
	errs    map[string]error
	tasks   []oracle.Task
}

func (o *scriptedOracle) Request(_ context.Context, task oracle.Task) (string, error) {
	o.tasks = append(o.tasks, task)
	if err := o.errs[task.PromptID]; err != nil {
		return "", err
	}
	queue := o.answers[task.PromptID]
	if len(queue) == 0 {
		return "", fmt.Errorf("no answer scripted for %s", task.PromptID)
	}
	answer := queue[0]
	if len(queue) > 1 {
		o.answers[task.PromptID] = queue[1:]
	}
	return answer, nil
}

func (o *scriptedOracle) count(promptID string) int {
	n := 0
	for _, t := range o.tasks {
		if t.PromptID == promptID {
			n++
		}
	}
	return n
}

type memStore struct {
	template    string
	templateErr error
	entry       string
	writes      []string
	schema      string
	schemaErr   error
}

func (s *memStore) ReadTemplate() (string, error) { return s.template, s.templateErr }
func (s *memStore) ReadEntryPoint() (string, error) {
	return s.entry, nil
}
func (s *memStore) WriteEntryPoint(code string) error {
	s.entry = code
	s.writes = append(s.writes, code)
	return nil
}
func (s *memStore) SaveSchema(raw string) error {
	if s.schemaErr != nil {
		return s.schemaErr
	}
	s.schema = raw
	return nil
}

type fakeProcess struct {
	mu    sync.Mutex
	kills int
	done  chan struct{}
	once  sync.Once
}

func newFakeProcess() *fakeProcess { return &fakeProcess{done: make(chan struct{})} }

func (p *fakeProcess) Pid() int { return 4242 }
func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.kills++
	p.mu.Unlock()
	p.once.Do(func() { close(p.done) })
	return nil
}
func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) killCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

// mockToolchain replays build results; the last one repeats.
type mockToolchain struct {
	results  []toolchain.BuildResult
	buildErr error
	startErr error
	builds   int
	procs    []*fakeProcess
}

func (m *mockToolchain) Build(context.Context) (toolchain.BuildResult, error) {
	if m.buildErr != nil {
		return toolchain.BuildResult{}, m.buildErr
	}
	i := m.builds
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	m.builds++
	return m.results[i], nil
}

func (m *mockToolchain) Start(context.Context) (sandbox.Process, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	p := newFakeProcess()
	m.procs = append(m.procs, p)
	return p, nil
}

type probeAnswer struct {
	status int
	err    error
}

// mockProber answers by URL; unknown URLs return 200.
type mockProber struct {
	answers map[string]probeAnswer
	urls    []string
	onProbe func(url string)
}

func (m *mockProber) Status(_ context.Context, url string, _ time.Duration) (int, error) {
	m.urls = append(m.urls, url)
	if m.onProbe != nil {
		m.onProbe(url)
	}
	if a, ok := m.answers[url]; ok {
		return a.status, a.err
	}
	return 200, nil
}

type staticConfirmer struct {
	answer bool
	err    error
	calls  int
}

func (c *staticConfirmer) Confirm(context.Context, string) (bool, error) {
	c.calls++
	return c.answer, c.err
}

// recordingHook keeps what the agents reported.
type recordingHook struct {
	engine.NopHook
	states  []engine.AgentState
	builds  []engine.BuildReport
	probes  []engine.ProbeReport
	issues  []string
	notices []string
}

func (h *recordingHook) OnStateChange(_ context.Context, _ string, _, to engine.AgentState) {
	h.states = append(h.states, to)
}
func (h *recordingHook) OnBuild(_ context.Context, _ string, r engine.BuildReport) {
	h.builds = append(h.builds, r)
}
func (h *recordingHook) OnProbe(_ context.Context, _ string, r engine.ProbeReport) {
	h.probes = append(h.probes, r)
}
func (h *recordingHook) OnNotice(_ context.Context, _ string, msg string) {
	h.notices = append(h.notices, msg)
}
func (h *recordingHook) OnIssue(_ context.Context, _ string, msg string) {
	h.issues = append(h.issues, msg)
}

var errTransport = errors.New("connection refused")
