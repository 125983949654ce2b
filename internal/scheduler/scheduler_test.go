package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestArmFiresOnceAfterGrace(t *testing.T) {
	var fired int32
	done := make(chan string, 1)
	s := New(20*time.Millisecond, func(roomID string) {
		atomic.AddInt32(&fired, 1)
		done <- roomID
	}, quietLog())

	s.Arm("r1")
	require.True(t, s.Armed("r1"))

	select {
	case room := <-done:
		assert.Equal(t, "r1", room)
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	// once fired, the timer is gone
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
	assert.False(t, s.Armed("r1"))
}

func TestArmTwiceDoesNotStack(t *testing.T) {
	var fired int32
	s := New(20*time.Millisecond, func(string) {
		atomic.AddInt32(&fired, 1)
	}, quietLog())

	s.Arm("r1")
	s.Arm("r1")
	s.Arm("r1")

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired), "one timer per room id")
}

func TestCancelBeforeExpiry(t *testing.T) {
	var fired int32
	s := New(20*time.Millisecond, func(string) {
		atomic.AddInt32(&fired, 1)
	}, quietLog())

	s.Arm("r1")
	s.Cancel("r1")
	assert.False(t, s.Armed("r1"))

	time.Sleep(80 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fired), "cancelled timer must not fire")
}

func TestCancelUnknownRoomIsSafe(t *testing.T) {
	s := New(time.Minute, func(string) {}, quietLog())
	s.Cancel("never-armed")
}

func TestRearmAfterCancel(t *testing.T) {
	var fired int32
	s := New(20*time.Millisecond, func(string) {
		atomic.AddInt32(&fired, 1)
	}, quietLog())

	s.Arm("r1")
	s.Cancel("r1")
	s.Arm("r1")

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestShutdownCancelsEverything(t *testing.T) {
	var fired int32
	s := New(20*time.Millisecond, func(string) {
		atomic.AddInt32(&fired, 1)
	}, quietLog())

	s.Arm("r1")
	s.Arm("r2")
	s.Shutdown()

	time.Sleep(80 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fired))
}

func TestConcurrentArmCancelNoRaces(t *testing.T) {
	s := New(time.Millisecond, func(string) {}, quietLog())

	var wg sync.WaitGroup
	rooms := []string{"a", "b", "c", "d"}
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r := rooms[(g+j)%len(rooms)]
				if j%2 == 0 {
					s.Arm(r)
				} else {
					s.Cancel(r)
				}
			}
		}(g)
	}
	wg.Wait()
	s.Shutdown()
	for _, r := range rooms {
		assert.False(t, s.Armed(r))
	}
}
