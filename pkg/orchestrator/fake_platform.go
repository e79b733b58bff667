package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeready-toolchain/flowise-agent/pkg/knowledge"
	"github.com/codeready-toolchain/flowise-agent/pkg/session"
)

// FakePlatform is an in-memory Platform double for tests, grounded on the
// same stub-collaborator pattern as pkg/llm.FakeClient.
type FakePlatform struct {
	mu sync.Mutex

	SearchResults  []GraphSummary
	SearchErr      error
	Graphs         map[string]session.GraphPayload
	CreateErr      error
	WriteErr       error
	Schemas        map[string]knowledge.NodeTemplate
	FetchSchemaErr error

	// PredictFunc lets a test script per-call responses; defaults to
	// echoing the prompt back if nil.
	PredictFunc func(graphID, sessionID, prompt string) (string, error)

	nextID int
	Writes []WriteCall
}

// WriteCall records one WriteGraph invocation for assertions.
type WriteCall struct {
	GraphID string
	Payload session.GraphPayload
}

// NewFakePlatform creates an empty FakePlatform.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{Graphs: map[string]session.GraphPayload{}, Schemas: map[string]knowledge.NodeTemplate{}}
}

func (f *FakePlatform) SearchGraphs(_ context.Context, _ string) ([]GraphSummary, error) {
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.SearchResults, nil
}

func (f *FakePlatform) GetGraph(_ context.Context, graphID string) (session.GraphPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.Graphs[graphID]
	if !ok {
		return session.GraphPayload{}, fmt.Errorf("fake platform: unknown graph %q", graphID)
	}
	return g, nil
}

func (f *FakePlatform) CreateGraph(_ context.Context, payload session.GraphPayload) (string, error) {
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("graph-%d", f.nextID)
	f.Graphs[id] = payload
	return id, nil
}

func (f *FakePlatform) WriteGraph(_ context.Context, graphID string, payload session.GraphPayload) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Graphs[graphID] = payload
	f.Writes = append(f.Writes, WriteCall{GraphID: graphID, Payload: payload})
	return nil
}

func (f *FakePlatform) FetchNodeSchema(_ context.Context, nodeType string) (knowledge.NodeTemplate, error) {
	if f.FetchSchemaErr != nil {
		return knowledge.NodeTemplate{}, f.FetchSchemaErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Schemas[nodeType]
	if !ok {
		return knowledge.NodeTemplate{}, fmt.Errorf("fake platform: unknown node type %q", nodeType)
	}
	return t, nil
}

func (f *FakePlatform) Predict(_ context.Context, graphID, sessionID, prompt string) (string, error) {
	if f.PredictFunc != nil {
		return f.PredictFunc(graphID, sessionID, prompt)
	}
	return prompt, nil
}
