package memory

import (
	"testing"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/token/tests"
)

func TestTokenMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
