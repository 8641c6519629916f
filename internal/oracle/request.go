// Package oracle turns a prompt plus input into a single oracle call and
// decodes structured answers.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/ChamsBouzaiene/autodev/internal/engine"
	"github.com/ChamsBouzaiene/autodev/internal/prompts"
)

const functionPrinterInstruction = "INSTRUCTION: You are a function printer. You ONLY print the results of functions. " +
	"Nothing else. No commentary. Here is the input to the function: %s. " +
	"Print out what the function will return."

// Task is one oracle request made on behalf of an agent.
type Task struct {
	PromptID  string // registered prompt, see prompts package
	Input     string // context text handed to the function
	Position  string // agent position, for hooks
	Operation string // human readable operation label
}

// TaskRequester is what agents need from the oracle.
type TaskRequester interface {
	Request(ctx context.Context, task Task) (string, error)
}

// Options configures a Requester.
type Options struct {
	Model   string
	Chat    engine.ChatOptions
	Policy  engine.RetryPolicy
	Prompts *prompts.PromptRegistry // defaults to prompts.DefaultRegistry()
	Hooks   engine.Hook             // defaults to engine.NopHook
}

// Requester implements TaskRequester over an engine.LLMClient.
type Requester struct {
	llm    engine.LLMClient
	opts   Options
	hooks  engine.Hook
	prompt *prompts.PromptRegistry
}

// NewRequester creates a Requester. A zero Policy means one retry.
func NewRequester(llm engine.LLMClient, opts Options) (*Requester, error) {
	if llm == nil {
		return nil, fmt.Errorf("oracle: llm client is required")
	}
	if opts.Policy == (engine.RetryPolicy{}) {
		opts.Policy = engine.DefaultOraclePolicy()
	}
	r := &Requester{llm: llm, opts: opts, hooks: opts.Hooks, prompt: opts.Prompts}
	if r.hooks == nil {
		r.hooks = engine.NopHook{}
	}
	if r.prompt == nil {
		r.prompt = prompts.DefaultRegistry()
	}
	return r, nil
}

// Message builds the single system message sent for a task.
func (r *Requester) Message(task Task) (engine.ChatMessage, error) {
	p, err := r.prompt.GetLatest(task.PromptID)
	if err != nil {
		return engine.ChatMessage{}, err
	}
	content := "FUNCTION " + p.Content + "\n" + fmt.Sprintf(functionPrinterInstruction, task.Input)
	return engine.ChatMessage{Role: engine.RoleSystem, Content: content}, nil
}

// Request sends the task and returns the raw answer. A failed call is
// repeated unchanged up to Policy.MaxRetries times, whatever the error.
func (r *Requester) Request(ctx context.Context, task Task) (string, error) {
	msg, err := r.Message(task)
	if err != nil {
		return "", fmt.Errorf("build request %s: %w", task.PromptID, err)
	}
	messages := []engine.ChatMessage{msg}

	r.hooks.OnOracleCall(ctx, task.Position, task.Operation)

	text, err := engine.RetryWithPolicy(ctx, r.opts.Policy,
		func(ctx context.Context) (string, error) {
			resp, err := r.llm.Chat(ctx, r.opts.Model, messages, r.opts.Chat)
			if err != nil {
				return "", err
			}
			return resp.Assistant.Content, nil
		},
		engine.AlwaysRetry,
		func(attempt int, delay time.Duration, err error) {
			r.hooks.OnRetryAttempt(ctx, task.Position, task.Operation, attempt, delay, err)
		},
	)
	if err != nil {
		if engine.IsRetryExhausted(err) {
			r.hooks.OnRetryExhausted(ctx, task.Position, task.Operation, err)
		}
		return "", fmt.Errorf("%s: %w", task.Operation, err)
	}
	return text, nil
}
