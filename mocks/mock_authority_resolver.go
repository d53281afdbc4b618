package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fidelis/internal/domain"
)

// MockAuthorityResolver is a mock implementation of port.AuthorityResolver.
type MockAuthorityResolver struct {
	mock.Mock
}

func (m *MockAuthorityResolver) ResolveByKey(ctx context.Context, key string) (*domain.AuthorityRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorityRecord), args.Error(1)
}

func (m *MockAuthorityResolver) ResolveByTaxID(ctx context.Context, taxID string) (*domain.AuthorityRecord, error) {
	args := m.Called(ctx, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorityRecord), args.Error(1)
}
