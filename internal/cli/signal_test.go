package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalContext_Cancel(t *testing.T) {
	sc := NewSignalContext(context.Background())
	assert.NoError(t, sc.Err())

	sc.Cancel()
	<-sc.Done()
	assert.ErrorIs(t, sc.Err(), context.Canceled)
	assert.Nil(t, sc.Signal())
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := NewSignalContext(parent)
	defer sc.Cancel()

	cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
