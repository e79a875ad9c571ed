package model

import "time"

// MergeStatus is the lifecycle state of a merge session.
type MergeStatus string

const (
	MergeProposed MergeStatus = "PROPOSED"
	MergeActive   MergeStatus = "ACTIVE"
	MergeClosed   MergeStatus = "CLOSED"
	MergeRejected MergeStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible.
func (s MergeStatus) Terminal() bool {
	return s == MergeClosed || s == MergeRejected
}

// DefaultEphemeralResources is the sandbox size used when none is requested.
const DefaultEphemeralResources = 3

// Sandbox is simulated collaboration space attached to an active merge.
// Nothing backs it; it is tracked as metadata only.
type Sandbox struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	EphemeralResources int       `json:"ephemeralResources"`
}

// CreditSplit records how two merged agents share credit. The parts are not
// required to sum to anything.
type CreditSplit struct {
	AgentA float64 `json:"agentA"`
	AgentB float64 `json:"agentB"`
}

// MergeSession is a two-agent collaboration proposal.
type MergeSession struct {
	ID             string       `json:"id"`
	AgentAID       string       `json:"agentAId"`
	AgentBID       string       `json:"agentBId"`
	Status         MergeStatus  `json:"status"`
	ProposedAt     time.Time    `json:"proposedAt"`
	ActivatedAt    *time.Time   `json:"activatedAt,omitempty"`
	ClosedAt       *time.Time   `json:"closedAt,omitempty"`
	Pitch          string       `json:"pitch,omitempty"`
	Sandbox        *Sandbox     `json:"sandbox,omitempty"`
	SharedArtifact string       `json:"sharedArtifact,omitempty"`
	CreditSplit    *CreditSplit `json:"creditSplit,omitempty"`
}

// SandboxID derives the sandbox id for a session.
func SandboxID(sessionID string) string {
	return "sandbox-" + sessionID
}

// RejectionNote formats a rejection reason for the shared artifact field.
func RejectionNote(reason string) string {
	return "REJECTED_REASON: " + reason
}
