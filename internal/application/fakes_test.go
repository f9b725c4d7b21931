package application_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"wattbridge/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type storeWrite struct {
	path  string
	value any
}

type fakeStore struct {
	mu      sync.Mutex
	updates []storeWrite
	sets    []storeWrite
	pushes  []storeWrite

	updateErr error
	setErr    error
	pushErr   error

	listeners map[string]func(path string, data any)
}

func newFakeStore() *fakeStore {
	return &fakeStore{listeners: make(map[string]func(path string, data any))}
}

func (s *fakeStore) Update(_ context.Context, path string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, storeWrite{path: path, value: values})
	return nil
}

func (s *fakeStore) Set(_ context.Context, path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets = append(s.sets, storeWrite{path: path, value: value})
	return nil
}

func (s *fakeStore) Push(_ context.Context, path string, value any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return "", s.pushErr
	}
	s.pushes = append(s.pushes, storeWrite{path: path, value: value})
	return fmt.Sprintf("alert-%d", len(s.pushes)), nil
}

func (s *fakeStore) Listen(ctx context.Context, path string, handler func(path string, data any)) error {
	s.mu.Lock()
	s.listeners[path] = handler
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *fakeStore) setsTo(path string) []storeWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storeWrite
	for _, w := range s.sets {
		if w.path == path {
			out = append(out, w)
		}
	}
	return out
}

func (s *fakeStore) alertsOfType(typ domain.AlertType) []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Alert
	for _, w := range s.pushes {
		if a, ok := w.value.(domain.Alert); ok && a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

type brokerPublish struct {
	topic   string
	qos     byte
	payload string
}

type fakeBroker struct {
	mu        sync.Mutex
	publishes []brokerPublish
	subs      map[string]func(topic string, payload []byte)

	connectErr error
	publishErr error

	onConnect func()
	onLost    func(error)
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: make(map[string]func(topic string, payload []byte))}
}

func (b *fakeBroker) Connect(_ context.Context) error {
	if b.connectErr != nil {
		return b.connectErr
	}
	if b.onConnect != nil {
		b.onConnect()
	}
	return nil
}

func (b *fakeBroker) Disconnect() {}

func (b *fakeBroker) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = handler
	return nil
}

func (b *fakeBroker) Publish(topic string, qos byte, payload string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.publishes = append(b.publishes, brokerPublish{topic: topic, qos: qos, payload: payload})
	return nil
}

func (b *fakeBroker) OnConnect(fn func()) { b.onConnect = fn }

func (b *fakeBroker) OnConnectionLost(fn func(error)) { b.onLost = fn }

func (b *fakeBroker) published() []brokerPublish {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]brokerPublish, len(b.publishes))
	copy(out, b.publishes)
	return out
}
