package memory

import (
	"testing"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo/tests"
)

func TestProgramInfoMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
