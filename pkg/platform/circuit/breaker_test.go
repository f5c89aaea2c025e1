package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock, opts ...Option) *Breaker {
	return New("broker", append([]Option{WithClock(clock.Now), WithCooldown(time.Minute)}, opts...)...)
}

func TestNewBreakerIsClosed(t *testing.T) {
	b := New("broker")
	assert.Equal(t, "broker", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())
}

func TestConsecutiveFailures(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		outcomes  []bool // true = success
		wantOpen  bool
	}{
		{"below threshold", 3, []bool{false, false}, false},
		{"at threshold", 3, []bool{false, false, false}, true},
		{"success breaks the run", 3, []bool{false, false, true, false, false}, false},
		{"run after success", 3, []bool{false, true, false, false, false}, true},
		{"threshold of one", 1, []bool{false}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("broker", WithFailureThreshold(tt.threshold))
			for _, ok := range tt.outcomes {
				if ok {
					b.RecordSuccess()
				} else {
					b.RecordFailure()
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestRecordFailureReportsTransitionOnce(t *testing.T) {
	b := New("broker", WithFailureThreshold(2))

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.Equal(t, StateChange{}, change)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback, "still open")
	assert.False(t, change.Opened, "already open")
}

func TestOpenBreakerNeedsConsecutiveSuccessesToClose(t *testing.T) {
	b := New("broker", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	primary, change := b.RecordSuccess()
	assert.False(t, primary)
	assert.False(t, change.Closed)

	b.RecordFailure()
	b.RecordSuccess()
	assert.True(t, b.IsOpen(), "a failure restarts the success count")

	primary, change = b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestAllowAdmitsOneTrialPerCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)}
	b := newTestBreaker(clock, WithFailureThreshold(1))

	b.RecordFailure()
	assert.Equal(t, "open", b.State().String())
	assert.False(t, b.Allow())

	clock.Advance(59 * time.Second)
	assert.False(t, b.Allow())

	clock.Advance(time.Second)
	assert.True(t, b.Allow(), "cooldown elapsed")
	assert.False(t, b.Allow(), "only one trial call in flight")

	b.RecordFailure()
	clock.Advance(time.Minute)
	assert.True(t, b.Allow(), "next cooldown admits another trial call")

	b.RecordSuccess()
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
}

func TestReset(t *testing.T) {
	b := New("broker", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}

func TestOptionsIgnoreNonPositiveValues(t *testing.T) {
	b := New("broker", WithFailureThreshold(0), WithSuccessThreshold(-1), WithCooldown(0))
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "default threshold of five applies")
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}
