package services

import (
	"context"
	"errors"
	"sync"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []ports.EmailMessage
	err  error
}

func (m *fakeMailer) Name() string { return "fake" }

func (m *fakeMailer) Send(_ context.Context, msg ports.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeNotifier struct {
	mu  sync.Mutex
	got []*entities.Notification
	err error
}

func (n *fakeNotifier) Notify(_ context.Context, note *entities.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note)
	return n.err
}

type fakeSearch struct {
	results []ports.SearchResult
	err     error
	asked   int
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, _ string, maxResults int) ([]ports.SearchResult, error) {
	f.asked = maxResults
	return f.results, f.err
}

type fakeRates struct {
	rate float64
	err  error
}

func (f *fakeRates) Convert(_ context.Context, amount float64, from, to string) (*ports.Conversion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.Conversion{
		Amount:          amount,
		FromCurrency:    from,
		ToCurrency:      to,
		ConvertedAmount: amount * f.rate,
		Rate:            f.rate,
	}, nil
}

var errUpstream = errors.New("upstream unavailable")
