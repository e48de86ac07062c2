package model

import "time"

// ExamStatus is the display status of an exam. It is always derived from the
// stored isActive flag and schedule, never stored on its own.
type ExamStatus string

const (
	ExamStatusDraft    ExamStatus = "Draft"
	ExamStatusUpcoming ExamStatus = "Upcoming"
	ExamStatusActive   ExamStatus = "Active"
	ExamStatusFinished ExamStatus = "Finished"
)

// StatusOf computes the display status from the stored flag and schedule.
// An inactive exam is a Draft regardless of its dates.
func StatusOf(isActive bool, now, startDate, endDate time.Time) ExamStatus {
	if !isActive {
		return ExamStatusDraft
	}
	if now.Before(startDate) {
		return ExamStatusUpcoming
	}
	if !now.After(endDate) {
		return ExamStatusActive
	}
	return ExamStatusFinished
}

// Settable reports whether a status can be the target of an explicit
// status-change request. Only Draft and Active map onto the underlying
// isActive flag; Upcoming and Finished are consequences of the clock.
func (s ExamStatus) Settable() bool {
	return s == ExamStatusDraft || s == ExamStatusActive
}

// SettableStatuses returns the targets a caller may request from the given
// current status. Once an exam is Active it cannot return to Draft, and a
// Finished exam cannot change at all.
func SettableStatuses(current ExamStatus) []ExamStatus {
	switch current {
	case ExamStatusDraft, ExamStatusUpcoming:
		return []ExamStatus{ExamStatusDraft, ExamStatusActive}
	case ExamStatusActive:
		return []ExamStatus{ExamStatusActive}
	default:
		return nil
	}
}

// IsTransitionAllowed reports whether an explicit change from current to
// target is legal.
func IsTransitionAllowed(current, target ExamStatus) bool {
	for _, s := range SettableStatuses(current) {
		if s == target {
			return true
		}
	}
	return false
}
