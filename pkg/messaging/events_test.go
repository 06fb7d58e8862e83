package messaging_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow/docflow-backend/pkg/messaging"
)

func TestNewEvent(t *testing.T) {
	payload := messaging.DocumentCreatedEvent{
		DocumentID:         "doc-1",
		RegistrationNumber: "DOC-2026-00042",
		Title:              "Vacation policy",
		DocumentType:       "policy",
		AuthorID:           "user-1",
	}

	event, err := messaging.NewEvent(messaging.EventDocumentCreated, "docflow-backend", "corr-123", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, messaging.EventDocumentCreated, event.Type)
	assert.Equal(t, "docflow-backend", event.Source)
	assert.Equal(t, "corr-123", event.CorrelationID)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 5*time.Second)

	var decoded messaging.DocumentCreatedEvent
	require.NoError(t, event.UnmarshalData(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := messaging.NewEvent(messaging.EventDocumentCreated, "docflow-backend", "", make(chan int))
	assert.Error(t, err)
}

func TestUserCreatedEvent_FullName(t *testing.T) {
	e := &messaging.UserCreatedEvent{FirstName: "Maria", LastName: "Santos"}
	assert.Equal(t, "Maria Santos", e.FullName())
}
