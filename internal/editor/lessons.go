package editor

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ErrIndexOutOfRange is returned for a lesson index outside the sequence.
var ErrIndexOutOfRange = errors.New("lesson index out of range")

// ApplyLesson returns a copy of lessons with lesson appended (index nil) or
// replacing the element at *index. The input slice is never modified.
func ApplyLesson(lessons []models.Lesson, lesson models.Lesson, index *int) ([]models.Lesson, error) {
	if index == nil {
		out := make([]models.Lesson, len(lessons), len(lessons)+1)
		copy(out, lessons)
		return append(out, lesson), nil
	}

	i := *index
	if i < 0 || i >= len(lessons) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(lessons))
	}
	out := cloneLessons(lessons)
	out[i] = lesson
	return out, nil
}

// RemoveLesson returns a copy of lessons without the element at index.
// Later elements shift left; step values are kept as they were.
func RemoveLesson(lessons []models.Lesson, index int) ([]models.Lesson, error) {
	if index < 0 || index >= len(lessons) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(lessons))
	}
	out := make([]models.Lesson, 0, len(lessons)-1)
	out = append(out, lessons[:index]...)
	return append(out, lessons[index+1:]...), nil
}

func cloneLessons(lessons []models.Lesson) []models.Lesson {
	out := make([]models.Lesson, len(lessons))
	copy(out, lessons)
	return out
}
