package factory

import (
	"time"

	"github.com/mcoot/arcade/internal/dependencies/mocks"
	"github.com/mcoot/arcade/internal/services/audit"
	"github.com/mcoot/arcade/internal/storage/memory"
	"github.com/mcoot/arcade/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// MemoryStorage is the backing store, exposed for inspection
	MemoryStorage *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(Config{})
}

// NewTestAppWithConfig is NewTestApp with the given factory config.
// Storage settings in cfg are ignored.
func NewTestAppWithConfig(cfg Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	if cfg.AuditConfig == (audit.Config{}) {
		cfg.AuditConfig = audit.Config{Workers: 4, RetryBackoff: time.Millisecond}
	}

	app, err := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())
	if err != nil {
		// Only the audit pool can fail here, and only on invalid options
		panic(err)
	}

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MemoryStorage: store,
	}
}
