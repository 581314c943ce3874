package sync

import (
	"fmt"
	base "sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripedLock_HappyPath(t *testing.T) {
	workerCount := 64
	operationCount := 1000

	l := NewStripedLock(4)

	var wg base.WaitGroup
	start := make(chan struct{})
	data := make([]int, workerCount)

	for i := 0; i < workerCount; i++ {
		key := fmt.Sprintf("worker%d", i)
		for j := 0; j < operationCount; j++ {
			wg.Add(1)
			go func(workerID int) {
				defer wg.Done()

				<-start

				mu := l.Get(key)
				mu.Lock()
				data[workerID]++
				mu.Unlock()
			}(i)
		}
	}

	close(start)
	wg.Wait()

	for _, val := range data {
		assert.Equal(t, operationCount, val)
	}
}

func TestStripedLock_LockAllOverlappingKeys(t *testing.T) {
	l := NewStripedLock(8)

	shared := "admin-vault"
	var total int
	var wg base.WaitGroup

	for i := 0; i < 256; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			// Reversed argument order on odd workers must not deadlock
			var unlock func()
			if i%2 == 0 {
				unlock = l.LockAll(shared, fmt.Sprintf("vault%d", i))
			} else {
				unlock = l.LockAll(fmt.Sprintf("vault%d", i), shared)
			}
			total++
			unlock()
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 256, total)
}

func TestStripedLock_LockAllSameStripe(t *testing.T) {
	l := NewStripedLock(1)

	unlock := l.LockAll("a", "b", "a")
	unlock()

	unlock = l.LockAll("c")
	unlock()
}
