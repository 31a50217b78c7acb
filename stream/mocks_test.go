package stream

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tkrehbiel/activitysift/stream/activity"
	"github.com/tkrehbiel/activitysift/stream/data"
	"github.com/tkrehbiel/activitysift/stream/twitter"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetActivities(ctx context.Context, q twitter.ActivityQuery) ([]activity.Object, error) {
	args := m.Called(q)
	if a, ok := args.Get(0).([]activity.Object); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Open() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockStore) Close() {
	m.Called()
}

func (m *mockStore) SelectAll(ctx context.Context) ([]data.Document, error) {
	args := m.Called()
	if d, ok := args.Get(0).([]data.Document); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Upsert(ctx context.Context, doc data.Document) error {
	args := m.Called(doc)
	return args.Error(0)
}
