package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressService_CompleteCourseAwardsBadge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, userSession, "Ana", "Lopez")

	course := f.createCourse(t, "UI Basics")
	f.addLesson(t, course.ID, "Intro", 1)
	f.addLesson(t, course.ID, "Layout", 2)
	svc := f.manager.Progress()

	started, err := svc.StartCourse(ctx, userSession, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, started.TotalLessons)
	assert.Zero(t, started.Progress)
	assert.False(t, started.Completed)

	again, err := svc.StartCourse(ctx, userSession, course.ID)
	require.NoError(t, err)
	assert.Equal(t, started.StartedAt.Unix(), again.StartedAt.Unix(), "starting twice keeps the record")

	step, err := svc.CompleteLesson(ctx, userSession, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, step.Progress)
	assert.False(t, step.Completed)
	assert.False(t, step.BadgeAwarded)

	done, err := svc.CompleteLesson(ctx, userSession, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, done.Progress)
	assert.True(t, done.Completed)
	assert.NotNil(t, done.CompletedAt)
	assert.True(t, done.BadgeAwarded)

	extra, err := svc.CompleteLesson(ctx, userSession, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, extra.Progress)
	assert.False(t, extra.BadgeAwarded)

	badges, err := svc.Badges(ctx, userSession)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "UI Basics", badges[0].CourseTitle)
	assert.Equal(t, "Ana Lopez", badges[0].UserName)
}

func TestProgressService_RetakeKeepsBadge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, userSession, "Ana", "Lopez")
	course := f.createCourse(t, "Go")
	f.addLesson(t, course.ID, "Only", 1)
	svc := f.manager.Progress()

	_, err := svc.StartCourse(ctx, userSession, course.ID)
	require.NoError(t, err)
	_, err = svc.CompleteLesson(ctx, userSession, course.ID)
	require.NoError(t, err)

	reset, err := svc.RetakeCourse(ctx, userSession, course.ID)
	require.NoError(t, err)
	assert.False(t, reset.Completed)
	assert.Zero(t, reset.Progress)
	assert.Nil(t, reset.CompletedAt)

	stored, err := f.repo.Progress().Get(ctx, nil, userSession.UserID, course.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
	assert.Zero(t, stored.Progress)

	again, err := svc.CompleteLesson(ctx, userSession, course.ID)
	require.NoError(t, err)
	assert.True(t, again.Completed)
	assert.False(t, again.BadgeAwarded, "badge is awarded once")

	badges, err := svc.Badges(ctx, userSession)
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestProgressService_CompleteWithoutStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, "Go")

	_, err := f.manager.Progress().CompleteLesson(ctx, userSession, course.ID)
	var ruleErr *BusinessRuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "COURSE_NOT_STARTED", ruleErr.Rule)

	_, err = f.manager.Progress().StartCourse(ctx, userSession, "missing")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestProgressService_MyCourses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, userSession, "Ana", "Lopez")
	svc := f.manager.Progress()

	inProgress := f.createCourse(t, "In progress")
	f.addLesson(t, inProgress.ID, "A", 1)
	f.addLesson(t, inProgress.ID, "B", 2)

	completed := f.createCourse(t, "Completed")
	f.addLesson(t, completed.ID, "A", 1)

	available := f.createCourse(t, "Available")
	deleted := f.createCourse(t, "Deleted")

	_, err := f.manager.Course().Create(ctx, adminSession, &CourseRequest{
		Title: "Hidden", Visibility: "restricted", AllowedUsers: []string{"someone-else"},
	}, nil)
	require.NoError(t, err)

	for _, id := range []string{inProgress.ID, completed.ID, deleted.ID} {
		_, err := svc.StartCourse(ctx, userSession, id)
		require.NoError(t, err)
	}
	_, err = svc.CompleteLesson(ctx, userSession, inProgress.ID)
	require.NoError(t, err)
	_, err = svc.CompleteLesson(ctx, userSession, completed.ID)
	require.NoError(t, err)

	require.NoError(t, f.manager.Course().Delete(ctx, adminSession, deleted.ID))

	mine, err := svc.MyCourses(ctx, userSession)
	require.NoError(t, err)

	require.Len(t, mine.InProgress, 1)
	assert.Equal(t, inProgress.ID, mine.InProgress[0].Course.ID)
	assert.Equal(t, 1, mine.InProgress[0].Progress.Progress)

	require.Len(t, mine.Completed, 1)
	assert.Equal(t, completed.ID, mine.Completed[0].Course.ID)

	require.Len(t, mine.Available, 1)
	assert.Equal(t, available.ID, mine.Available[0].ID)
}
