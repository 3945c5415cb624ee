package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/model"
)

func TestRulesPlan(t *testing.T) {
	hr := uuid.New()
	hire := &model.Hire{Identity: model.Identity{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace"}, RegisteredByHR: hr}
	signed := &model.Task{ID: 7, Title: "NDA", RequiresSignature: true}
	plain := &model.Task{ID: 8, Title: "Laptop"}

	cases := []struct {
		name  string
		event Event
		users []uuid.UUID
		typ   model.NotificationType
	}{
		{"signed document", Event{Kind: EventTodoCompleted, Hire: hire, Task: signed}, []uuid.UUID{hr}, model.NotificationDocumentSigned},
		{"plain completion", Event{Kind: EventTodoCompleted, Hire: hire, Task: plain}, nil, ""},
		{"reminder", Event{Kind: EventReminderRequested, Hire: hire, Task: plain}, []uuid.UUID{hire.ID}, model.NotificationReminder},
		{"signature request", Event{Kind: EventSignatureRequested, Hire: hire, Task: signed}, []uuid.UUID{hire.ID}, model.NotificationSignatureRequest},
		{"overdue", Event{Kind: EventTaskOverdue, Hire: hire, Task: plain}, []uuid.UUID{hire.ID}, model.NotificationOverdueTask},
		{"started", Event{Kind: EventOnboardingStarted, Hire: hire}, []uuid.UUID{hr}, model.NotificationOnboardingStarted},
		{"completed", Event{Kind: EventOnboardingCompleted, Hire: hire}, []uuid.UUID{hr}, model.NotificationOnboardingCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intents := Rules{}.Plan(tc.event)
			require.Len(t, intents, len(tc.users))
			for i, intent := range intents {
				assert.Equal(t, tc.users[i], intent.UserID)
				assert.Equal(t, tc.typ, intent.Type)
			}
		})
	}
}

func TestRulesBroadcastAndOrphans(t *testing.T) {
	hire := &model.Hire{Identity: model.Identity{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace"}}
	task := &model.Task{ID: 3, Title: "Laptop"}
	audience := []model.HrUser{{Identity: model.Identity{ID: uuid.New()}}, {Identity: model.Identity{ID: uuid.New()}}}

	intents := Rules{}.Plan(Event{Kind: EventTaskCompleted, Hire: hire, Task: task, Audience: audience})
	require.Len(t, intents, 2)
	assert.Equal(t, "Task 'Laptop' has been completed by Ada Lovelace", intents[0].Message)
	require.NotNil(t, intents[1].RelatedTaskID)
	assert.Equal(t, 3, *intents[1].RelatedTaskID)

	// no registering HR, nobody to tell
	assert.Empty(t, Rules{}.Plan(Event{Kind: EventOnboardingStarted, Hire: hire}))
	assert.Empty(t, Rules{}.Plan(Event{Kind: EventTodoCompleted, Hire: hire, Task: &model.Task{RequiresSignature: true}}))
	assert.Empty(t, Rules{}.Plan(Event{Kind: EventReminderRequested}))
}

func TestDueDate(t *testing.T) {
	event := testNow.Add(72 * time.Hour)
	due := testNow.Add(96 * time.Hour)

	assert.Equal(t, event, DueDate(model.Task{EventDate: &event, DueDate: &due}, testNow))
	assert.Equal(t, due, DueDate(model.Task{DueDate: &due, RequiresSignature: true}, testNow))
	assert.Equal(t, testNow.Add(signatureDueWindow), DueDate(model.Task{RequiresSignature: true}, testNow))
	assert.Equal(t, testNow.Add(defaultDueWindow), DueDate(model.Task{}, testNow))
}

func TestParseBroadcastScope(t *testing.T) {
	sc, err := ParseBroadcastScope("")
	require.NoError(t, err)
	assert.Equal(t, BroadcastAll, sc)
	sc, err = ParseBroadcastScope("Company")
	require.NoError(t, err)
	assert.Equal(t, BroadcastCompany, sc)
	_, err = ParseBroadcastScope("team")
	require.Error(t, err)
}
