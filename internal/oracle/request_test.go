package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/prompts"
)

// mockLLM replies from a script. A nil-error entry with empty text is a
// successful empty answer.
type mockLLM struct {
	replies []mockReply
	calls   [][]engine.ChatMessage
}

type mockReply struct {
	text string
	err  error
}

func (m *mockLLM) Chat(_ context.Context, _ string, messages []engine.ChatMessage, _ engine.ChatOptions) (engine.LLMResponse, error) {
	m.calls = append(m.calls, messages)
	if len(m.calls) > len(m.replies) {
		return engine.LLMResponse{}, errors.New("no scripted reply")
	}
	r := m.replies[len(m.calls)-1]
	if r.err != nil {
		return engine.LLMResponse{}, r.err
	}
	return engine.LLMResponse{Assistant: engine.ChatMessage{Role: engine.RoleAssistant, Content: r.text}}, nil
}

type recordingHook struct {
	engine.NopHook
	calls, retries, exhausted int
}

func (h *recordingHook) OnOracleCall(context.Context, string, string) { h.calls++ }
func (h *recordingHook) OnRetryAttempt(context.Context, string, string, int, time.Duration, error) {
	h.retries++
}
func (h *recordingHook) OnRetryExhausted(context.Context, string, string, error) { h.exhausted++ }

func newTestRequester(t *testing.T, llm engine.LLMClient, hook engine.Hook) *Requester {
	t.Helper()
	reg := prompts.NewPromptRegistry()
	reg.Register(&prompts.Prompt{ID: "echo", Version: prompts.PromptV1, Content: "def echo(x: str) -> str"})
	r, err := NewRequester(llm, Options{
		Model:   "gpt-4",
		Policy:  engine.RetryPolicy{MaxRetries: 1},
		Prompts: reg,
		Hooks:   hook,
	})
	require.NoError(t, err)
	return r
}

func TestRequest_RetryBound(t *testing.T) {
	transport := errors.New("connection reset by peer")

	tests := []struct {
		name          string
		replies       []mockReply
		wantText      string
		wantErr       bool
		wantCalls     int
		wantRetries   int
		wantExhausted int
	}{
		{
			name:      "first call succeeds",
			replies:   []mockReply{{text: "A"}, {text: "B"}},
			wantText:  "A",
			wantCalls: 1,
		},
		{
			name:        "one failure then success",
			replies:     []mockReply{{err: transport}, {text: "B"}},
			wantText:    "B",
			wantCalls:   2,
			wantRetries: 1,
		},
		{
			name:          "two failures exhaust",
			replies:       []mockReply{{err: transport}, {err: transport}, {text: "never"}},
			wantErr:       true,
			wantCalls:     2,
			wantRetries:   1,
			wantExhausted: 1,
		},
		{
			name:        "non-retryable class is still retried once",
			replies:     []mockReply{{err: errors.New("status code: 401 unauthorized")}, {text: "ok"}},
			wantText:    "ok",
			wantCalls:   2,
			wantRetries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{replies: tt.replies}
			hook := &recordingHook{}
			r := newTestRequester(t, llm, hook)

			got, err := r.Request(context.Background(), Task{PromptID: "echo", Input: "in", Position: "Tester", Operation: "echo"})
			assert.Len(t, llm.calls, tt.wantCalls)
			assert.Equal(t, 1, hook.calls)
			assert.Equal(t, tt.wantRetries, hook.retries)
			assert.Equal(t, tt.wantExhausted, hook.exhausted)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, engine.IsRetryExhausted(err))
				assert.ErrorIs(t, err, transport)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got)
		})
	}
}

func TestRequest_SingleSystemMessage(t *testing.T) {
	llm := &mockLLM{replies: []mockReply{{err: errors.New("timeout")}, {text: "x"}}}
	r := newTestRequester(t, llm, nil)

	_, err := r.Request(context.Background(), Task{PromptID: "echo", Input: "CODE_INPUT: fn main() {}", Operation: "echo"})
	require.NoError(t, err)
	require.Len(t, llm.calls, 2)

	for _, msgs := range llm.calls {
		require.Len(t, msgs, 1)
		assert.Equal(t, engine.RoleSystem, msgs[0].Role)
		assert.True(t, strings.HasPrefix(msgs[0].Content, "FUNCTION def echo(x: str) -> str\n"))
		assert.Contains(t, msgs[0].Content, "You are a function printer")
		assert.Contains(t, msgs[0].Content, "Here is the input to the function: CODE_INPUT: fn main() {}.")
	}
	assert.Equal(t, llm.calls[0], llm.calls[1])
}

func TestRequest_UnknownPrompt(t *testing.T) {
	llm := &mockLLM{}
	r := newTestRequester(t, llm, nil)

	_, err := r.Request(context.Background(), Task{PromptID: "missing"})
	assert.Error(t, err)
	assert.Empty(t, llm.calls)
}

func TestNewRequester_RequiresClient(t *testing.T) {
	_, err := NewRequester(nil, Options{})
	assert.Error(t, err)
}

func TestNewRequester_DefaultPolicy(t *testing.T) {
	r, err := NewRequester(&mockLLM{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, r.opts.Policy.MaxRetries)
}
