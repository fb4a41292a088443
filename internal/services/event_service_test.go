package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

func eventAt(title string, start time.Time, d time.Duration) *EventRequest {
	return &EventRequest{Title: title, StartDate: start, EndDate: start.Add(d)}
}

func TestEventService_UpcomingPastAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.manager.Event()

	for _, req := range []*EventRequest{
		eventAt("Kickoff", fixedNow.Add(-72*time.Hour), time.Hour),
		eventAt("Retro", fixedNow.Add(-24*time.Hour), time.Hour),
		eventAt("Demo Day", fixedNow.Add(48*time.Hour), time.Hour),
		eventAt("Design Workshop", fixedNow.Add(24*time.Hour), 2*time.Hour),
		eventAt("Hackathon", fixedNow.Add(-time.Hour), 3*time.Hour),
	} {
		_, err := svc.Create(ctx, modSession, req)
		require.NoError(t, err)
	}

	upcoming, err := svc.ListUpcoming(ctx, repositories.EventFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hackathon", "Design Workshop", "Demo Day"}, eventTitles(upcoming))

	past, err := svc.ListPast(ctx, repositories.EventFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Retro", "Kickoff"}, eventTitles(past))

	found, err := svc.Search(ctx, repositories.EventFilters{Query: "  DEMO "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Demo Day"}, eventTitles(found))
}

func TestEventService_WritesRequireModerator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Event().Create(ctx, userSession, eventAt("Kickoff", fixedNow, time.Hour))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.manager.Event().Delete(ctx, userSession, "any"), ErrForbidden)
}

func TestEventService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Event().Create(ctx, modSession, eventAt("Backwards", fixedNow, -time.Hour))
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "end_date", verrs[0].Field)

	req := eventAt("Colorful", fixedNow, time.Hour)
	req.Color = "pink"
	_, err = f.manager.Event().Create(ctx, modSession, req)
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "color", verrs[0].Field)
}

func TestEventService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.manager.Event()

	created, err := svc.Create(ctx, modSession, eventAt("Kickoff", fixedNow, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.EventColorBlue, created.Color)

	req := eventAt("Kickoff v2", fixedNow, 2*time.Hour)
	req.Color = models.EventColorGreen
	req.Tags = []string{"all-hands"}
	updated, err := svc.Update(ctx, adminSession, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Kickoff v2", updated.Title)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventColorGreen, got.Color)
	assert.Equal(t, []string{"all-hands"}, []string(got.Tags))

	require.NoError(t, svc.Delete(ctx, modSession, created.ID))
	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	ops := []events.Operation{}
	for _, evt := range f.publisher.Events() {
		assert.Equal(t, events.CollectionEvents, evt.Collection)
		ops = append(ops, evt.Op)
	}
	assert.Equal(t, []events.Operation{events.OpCreated, events.OpUpdated, events.OpDeleted}, ops)
}

func eventTitles(list []*models.Event) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Title
	}
	return out
}
