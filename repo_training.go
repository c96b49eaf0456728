package portalsync

import "sort"

// ModuleRepo provides typed access to the training-module collection.
type ModuleRepo struct {
	repoDeps
}

// All returns modules sorted by their display order. Equal orders keep
// insertion order.
func (r *ModuleRepo) All() ([]Module, error) {
	records, err := r.store.ReadCollection(KindModules)
	if err != nil {
		return nil, err
	}
	modules, err := decodeCollection[Module](records)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].Order < modules[j].Order
	})
	return modules, nil
}

// ByID returns the module with the given identity.
func (r *ModuleRepo) ByID(id string) (*Module, error) {
	rec, err := r.store.Get(KindModules, id)
	if err != nil {
		return nil, err
	}
	module, err := decodeRecord[Module](rec)
	if err != nil {
		return nil, err
	}
	return &module, nil
}

// Save validates and persists the module.
func (r *ModuleRepo) Save(module Module) (*Module, error) {
	if err := module.Validate(); err != nil {
		return nil, err
	}
	if module.ID == "" {
		module.ID = newID()
	}

	rec, err := encodeRecord(module.ID, &module)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindModules, rec); err != nil {
		return nil, err
	}
	return &module, nil
}

// Delete removes the module from the cache and schedules the remote delete.
func (r *ModuleRepo) Delete(id string) error {
	return r.deleteRecord(KindModules, id)
}

// LessonRepo provides typed access to the lesson collection.
type LessonRepo struct {
	repoDeps
}

// All returns lessons, optionally filtered to one module, in insertion
// order.
func (r *LessonRepo) All(moduleID string) ([]Lesson, error) {
	records, err := r.store.ReadCollection(KindLessons)
	if err != nil {
		return nil, err
	}
	lessons, err := decodeCollection[Lesson](records)
	if err != nil {
		return nil, err
	}

	if moduleID != "" {
		filtered := lessons[:0]
		for _, l := range lessons {
			if l.ModuleID == moduleID {
				filtered = append(filtered, l)
			}
		}
		lessons = filtered
	}
	return lessons, nil
}

// ByID returns the lesson with the given identity.
func (r *LessonRepo) ByID(id string) (*Lesson, error) {
	rec, err := r.store.Get(KindLessons, id)
	if err != nil {
		return nil, err
	}
	lesson, err := decodeRecord[Lesson](rec)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Save validates and persists the lesson.
func (r *LessonRepo) Save(lesson Lesson) (*Lesson, error) {
	if err := lesson.Validate(); err != nil {
		return nil, err
	}
	if lesson.ID == "" {
		lesson.ID = newID()
	}

	rec, err := encodeRecord(lesson.ID, &lesson)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindLessons, rec); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Delete removes the lesson from the cache and schedules the remote delete.
func (r *LessonRepo) Delete(id string) error {
	return r.deleteRecord(KindLessons, id)
}

// ProgressRepo provides typed access to the user-progress collection.
// Progress records are identified by their (user, lesson) pair, so saving
// the same pair twice updates in place.
type ProgressRepo struct {
	repoDeps
}

// All returns progress records, optionally filtered to one user.
func (r *ProgressRepo) All(userID string) ([]UserProgress, error) {
	records, err := r.store.ReadCollection(KindProgress)
	if err != nil {
		return nil, err
	}
	progress, err := decodeCollection[UserProgress](records)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		filtered := progress[:0]
		for _, p := range progress {
			if p.UserID == userID {
				filtered = append(filtered, p)
			}
		}
		progress = filtered
	}
	return progress, nil
}

// ForLesson returns the progress record for a (user, lesson) pair.
func (r *ProgressRepo) ForLesson(userID, lessonID string) (*UserProgress, error) {
	key := UserProgress{UserID: userID, LessonID: lessonID}
	rec, err := r.store.Get(KindProgress, key.Key())
	if err != nil {
		return nil, err
	}
	progress, err := decodeRecord[UserProgress](rec)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Save validates and persists the progress record, deriving its identity
// from the (user, lesson) pair.
func (r *ProgressRepo) Save(progress UserProgress) (*UserProgress, error) {
	if err := progress.Validate(); err != nil {
		return nil, err
	}
	progress.ID = progress.Key()

	rec, err := encodeRecord(progress.ID, &progress)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindProgress, rec); err != nil {
		return nil, err
	}
	return &progress, nil
}

// Delete removes the progress record for a (user, lesson) pair.
func (r *ProgressRepo) Delete(userID, lessonID string) error {
	key := UserProgress{UserID: userID, LessonID: lessonID}
	return r.deleteRecord(KindProgress, key.Key())
}
