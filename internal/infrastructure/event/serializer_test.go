package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

func TestEventSerializer_Register(t *testing.T) {
	s := NewEventSerializer()
	s.Register("TestEvent", func() shared.DomainEvent { return &testEvent{} })
	assert.True(t, s.IsRegistered("TestEvent"))

	original := newTestEvent("TestEvent")
	data, err := s.Serialize(original)
	require.NoError(t, err)
	decoded, err := s.Deserialize("TestEvent", data)
	require.NoError(t, err)
	assert.Equal(t, original.EventID(), decoded.EventID())
	assert.IsType(t, &testEvent{}, decoded)
}
