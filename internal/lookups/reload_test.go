package lookups

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTableWithZeroIntervalDisablesScheduler(t *testing.T) {
	tbl, err := NewTable(0, func() error { return nil })
	assert.NoError(t, err)
	assert.NoError(t, tbl.Stop())
}

func TestGuardSerializesWriters(t *testing.T) {
	tbl, err := NewTable(0, func() error { return nil })
	assert.NoError(t, err)

	var counter int64
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			unlock := tbl.Guard()
			atomic.AddInt64(&counter, 1)
			unlock()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, int64(8), counter)
}

func TestReloadNowInvokesReloadFn(t *testing.T) {
	var called bool
	tbl, err := NewTable(0, func() error { called = true; return nil })
	assert.NoError(t, err)
	assert.NoError(t, tbl.ReloadNow())
	assert.True(t, called)
}
