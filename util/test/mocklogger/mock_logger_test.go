package mocklogger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockLoggerRecords(t *testing.T) {
	logger := NewTestLogger()

	logger.Infof("tip %d", 500)
	logger.Warnf("slow relay")
	logger.Warnf("slow relay again")

	logger.AssertNumberOfCalls(t, "Infof", 1)
	logger.AssertNumberOfCalls(t, "Warnf", 2)
	logger.AssertNumberOfCalls(t, "Errorf", 0)
	assert.True(t, logger.Contains("tip 500"))
	assert.False(t, logger.Contains("tip 501"))

	logger.Reset()
	logger.AssertNumberOfCalls(t, "Infof", 0)
	assert.False(t, logger.Contains("tip 500"))
}

func TestMockLoggerNewSharesRecord(t *testing.T) {
	logger := NewTestLogger()
	child := logger.New("lightclient")

	child.Errorf("boom")

	assert.Equal(t, 1, logger.Calls("Errorf"))
	assert.True(t, logger.Contains("lightclient: boom"))
	assert.Same(t, logger, logger.Duplicate())
}

func TestMockLoggerConcurrent(t *testing.T) {
	logger := NewTestLogger()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			logger.Debugf("hello")
		}()
	}

	wg.Wait()

	assert.Equal(t, 50, logger.Calls("Debugf"))
}
