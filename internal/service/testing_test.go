// FILE: internal/service/testing_test.go
package service

import (
	"context"
	"sync"

	"vip-gatekeeper-be/pkg/events"
	"vip-gatekeeper-be/pkg/telegram"
)

// nopLogger keeps test output clean.
type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeMembership records grant/revoke calls and returns programmable errors.
type fakeMembership struct {
	mu        sync.Mutex
	grants    []string
	revokes   []string
	grantErr  error
	revokeErr error
}

func (f *fakeMembership) Grant(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, userID)
	return f.grantErr
}

func (f *fakeMembership) Revoke(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokes = append(f.revokes, userID)
	return f.revokeErr
}

func (f *fakeMembership) grantCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grants)
}

func (f *fakeMembership) revokeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.revokes)
}

func transientFailure() error {
	return &telegram.Failure{Op: "test", Description: "gateway timeout", StatusCode: 502, Permanent: false}
}

func permanentFailure() error {
	return &telegram.Failure{Op: "test", Description: "bot was blocked by the user", StatusCode: 403, Permanent: true}
}

// capturingPublisher collects published lifecycle events.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) PublishEvent(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) typesSeen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
