// Package editor holds the course and lesson editing workflow. A Session keeps
// a working copy of one course's lesson sequence and writes the whole sequence
// back on every change.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// Mode selects how lesson writes handle concurrent edits.
type Mode int

const (
	// LastWriterWins writes the working copy unconditionally. Two sessions
	// that never refresh silently overwrite each other.
	LastWriterWins Mode = iota

	// CompareAndSwap conditions each write on the version the working copy
	// was loaded at and fails with repositories.ErrVersionConflict otherwise.
	CompareAndSwap
)

func (m Mode) String() string {
	if m == CompareAndSwap {
		return "compare_and_swap"
	}
	return "last_writer_wins"
}

type State int

const (
	StateListing State = iota
	StateEditingCourse
	StateViewingLessons
	StateLessonModal
)

func (s State) String() string {
	switch s {
	case StateEditingCourse:
		return "editing_course"
	case StateViewingLessons:
		return "viewing_lessons"
	case StateLessonModal:
		return "lesson_modal"
	default:
		return "listing"
	}
}

// ModalKind tells whether an open lesson modal adds or edits.
type ModalKind int

const (
	ModalNone ModalKind = iota
	ModalAdd
	ModalEdit
)

// ErrInvalidTransition is returned when an action is not allowed in the
// session's current state.
var ErrInvalidTransition = errors.New("invalid editor transition")

// Store is what a session needs from the document store.
type Store interface {
	LoadCourse(ctx context.Context, id string) (*models.Course, error)
	WriteLessons(ctx context.Context, id string, lessons []models.Lesson, expectedVersion *int) (int, error)
}

// Session is a single editor's view of one course. It is not safe for
// concurrent use; concurrent editors each hold their own Session.
type Session struct {
	store Store
	mode  Mode

	state     State
	modal     ModalKind
	editIndex int

	courseID string
	lessons  []models.Lesson
	version  int
}

func NewSession(store Store, mode Mode) *Session {
	return &Session{store: store, mode: mode}
}

func (s *Session) State() State      { return s.state }
func (s *Session) Modal() ModalKind  { return s.modal }
func (s *Session) Mode() Mode        { return s.mode }
func (s *Session) CourseID() string  { return s.courseID }
func (s *Session) Version() int      { return s.version }
func (s *Session) EditingIndex() int { return s.editIndex }

// Lessons returns a copy of the working lesson sequence.
func (s *Session) Lessons() []models.Lesson {
	return cloneLessons(s.lessons)
}

func (s *Session) transition(from []State, to State) error {
	for _, st := range from {
		if s.state == st {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
}

// BeginCourseEdit moves from the course list into the course form.
func (s *Session) BeginCourseEdit(courseID string) error {
	if err := s.transition([]State{StateListing}, StateEditingCourse); err != nil {
		return err
	}
	s.courseID = courseID
	return nil
}

// FinishCourseEdit returns to the list after a save or cancel.
func (s *Session) FinishCourseEdit() error {
	if err := s.transition([]State{StateEditingCourse}, StateListing); err != nil {
		return err
	}
	s.courseID = ""
	return nil
}

// OpenCourse loads the course and makes its lessons the working copy.
func (s *Session) OpenCourse(ctx context.Context, courseID string) error {
	if s.state != StateListing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, StateViewingLessons)
	}
	course, err := s.store.LoadCourse(ctx, courseID)
	if err != nil {
		return err
	}

	s.courseID = course.ID
	s.lessons = cloneLessons(course.Lessons)
	s.version = course.Version
	s.state = StateViewingLessons
	return nil
}

// ExpectVersion fails with ErrVersionConflict when the working copy was not
// loaded at version v.
func (s *Session) ExpectVersion(v int) error {
	if s.version != v {
		return fmt.Errorf("%w: expected %d, have %d", repositories.ErrVersionConflict, v, s.version)
	}
	return nil
}

// Refresh reloads the working copy from the store.
func (s *Session) Refresh(ctx context.Context) error {
	if s.state != StateViewingLessons && s.state != StateLessonModal {
		return fmt.Errorf("%w: refresh in %s", ErrInvalidTransition, s.state)
	}
	course, err := s.store.LoadCourse(ctx, s.courseID)
	if err != nil {
		return err
	}
	s.lessons = cloneLessons(course.Lessons)
	s.version = course.Version
	return nil
}

// BeginAdd opens the lesson modal for a new lesson.
func (s *Session) BeginAdd() error {
	if err := s.transition([]State{StateViewingLessons}, StateLessonModal); err != nil {
		return err
	}
	s.modal = ModalAdd
	return nil
}

// BeginEdit opens the lesson modal on the lesson at index.
func (s *Session) BeginEdit(index int) error {
	if s.state != StateViewingLessons {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, StateLessonModal)
	}
	if index < 0 || index >= len(s.lessons) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.lessons))
	}
	s.state = StateLessonModal
	s.modal = ModalEdit
	s.editIndex = index
	return nil
}

// Cancel closes the lesson modal without writing.
func (s *Session) Cancel() error {
	if err := s.transition([]State{StateLessonModal}, StateViewingLessons); err != nil {
		return err
	}
	s.modal = ModalNone
	return nil
}

// AddOrUpdateLesson appends lesson (index nil) or replaces the lesson at
// *index in the working copy, then writes the whole sequence. On success the
// modal, if open, is closed. On failure the working copy is unchanged.
func (s *Session) AddOrUpdateLesson(ctx context.Context, lesson models.Lesson, index *int) error {
	if s.state != StateViewingLessons && s.state != StateLessonModal {
		return fmt.Errorf("%w: save lesson in %s", ErrInvalidTransition, s.state)
	}

	next, err := ApplyLesson(s.lessons, lesson, index)
	if err != nil {
		return err
	}
	if err := s.write(ctx, next); err != nil {
		return err
	}

	s.state = StateViewingLessons
	s.modal = ModalNone
	return nil
}

// DeleteLesson removes the lesson at index and writes the whole sequence.
func (s *Session) DeleteLesson(ctx context.Context, index int) error {
	if s.state != StateViewingLessons {
		return fmt.Errorf("%w: delete lesson in %s", ErrInvalidTransition, s.state)
	}

	next, err := RemoveLesson(s.lessons, index)
	if err != nil {
		return err
	}
	return s.write(ctx, next)
}

func (s *Session) write(ctx context.Context, lessons []models.Lesson) error {
	var expected *int
	if s.mode == CompareAndSwap {
		v := s.version
		expected = &v
	}

	version, err := s.store.WriteLessons(ctx, s.courseID, lessons, expected)
	if err != nil {
		return err
	}
	s.lessons = lessons
	s.version = version
	return nil
}

// Close leaves the lesson view and discards the working copy.
func (s *Session) Close() error {
	if err := s.transition([]State{StateViewingLessons, StateLessonModal}, StateListing); err != nil {
		return err
	}
	s.modal = ModalNone
	s.courseID = ""
	s.lessons = nil
	s.version = 0
	return nil
}
