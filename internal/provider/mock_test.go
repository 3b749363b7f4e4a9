package provider

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	args := m.Called(ctx, base, symbols)
	rates, _ := args.Get(0).(map[string]float64)
	return rates, args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordFetchError(ctx context.Context, err error) {
	m.Called(ctx, err)
}
