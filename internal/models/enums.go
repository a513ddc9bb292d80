package models

import (
	"fmt"
	"strings"
)

// VisitStatus is the lifecycle state of a visit.
type VisitStatus string

const (
	VisitScheduled VisitStatus = "Scheduled"
	VisitCompleted VisitStatus = "Completed"
	VisitCancelled VisitStatus = "Cancelled"
)

var visitStatuses = []VisitStatus{VisitScheduled, VisitCompleted, VisitCancelled}

// ParseVisitStatus matches s case-insensitively against the known statuses.
func ParseVisitStatus(s string) (VisitStatus, error) {
	for _, st := range visitStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown visit status %q", s)
}

// IsTerminal reports whether no further cancel/complete transition is allowed.
func (s VisitStatus) IsTerminal() bool {
	switch s {
	case VisitCompleted, VisitCancelled:
		return true
	default:
		return false
	}
}

// VisitReason is why the patient is coming in.
type VisitReason string

const (
	ReasonConsultation VisitReason = "Consultation"
	ReasonFollowUp     VisitReason = "FollowUp"
	ReasonPrescription VisitReason = "Prescription"
	ReasonCheckup      VisitReason = "Checkup"
)

var visitReasons = []VisitReason{ReasonConsultation, ReasonFollowUp, ReasonPrescription, ReasonCheckup}

// ParseVisitReason matches s case-insensitively against the known reasons.
func ParseVisitReason(s string) (VisitReason, error) {
	for _, r := range visitReasons {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown visit reason %q", s)
}

// PatientStatus marks whether a patient account is in use.
type PatientStatus string

const (
	PatientActive   PatientStatus = "Active"
	PatientInactive PatientStatus = "Inactive"
)
