package iocache

import (
	"context"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetFingerprintStore implements the StoreManager interface.
func (m *MockStoreManager) GetFingerprintStore() contract.FingerprintStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.FingerprintStore)
	return store
}

// GetComparisonStore implements the StoreManager interface.
func (m *MockStoreManager) GetComparisonStore() contract.ComparisonStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ComparisonStore)
	return store
}

// MockFingerprintStore is a mock implementation of FingerprintStore for testing.
type MockFingerprintStore struct {
	mock.Mock
}

var _ contract.FingerprintStore = &MockFingerprintStore{} // Compile-time check

// Put implements the FingerprintStore interface.
func (m *MockFingerprintStore) Put(ctx context.Context, record schema.FingerprintRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Get implements the FingerprintStore interface.
func (m *MockFingerprintStore) Get(ctx context.Context, sourceID string) (schema.FingerprintRecord, error) {
	args := m.Called(ctx, sourceID)
	return args.Get(0).(schema.FingerprintRecord), args.Error(1)
}

// List implements the FingerprintStore interface.
func (m *MockFingerprintStore) List(ctx context.Context) ([]schema.FingerprintRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.FingerprintRecord)
	return records, args.Error(1)
}

// GetStatus implements the FingerprintStore interface.
func (m *MockFingerprintStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the FingerprintStore interface.
func (m *MockFingerprintStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockComparisonStore is a mock implementation of ComparisonStore for testing.
type MockComparisonStore struct {
	mock.Mock
}

var _ contract.ComparisonStore = &MockComparisonStore{} // Compile-time check

// RecordComparison implements the ComparisonStore interface.
func (m *MockComparisonStore) RecordComparison(ctx context.Context, record schema.ComparisonRecord, changes []schema.ChangeRecord) error {
	args := m.Called(ctx, record, changes)
	return args.Error(0)
}

// ListComparisons implements the ComparisonStore interface.
func (m *MockComparisonStore) ListComparisons(ctx context.Context, limit int) ([]schema.ComparisonRecord, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]schema.ComparisonRecord)
	return records, args.Error(1)
}

// ListChanges implements the ComparisonStore interface.
func (m *MockComparisonStore) ListChanges(ctx context.Context) ([]schema.ChangeRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.ChangeRecord)
	return records, args.Error(1)
}

// GetStatus implements the ComparisonStore interface.
func (m *MockComparisonStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ComparisonStore interface.
func (m *MockComparisonStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
