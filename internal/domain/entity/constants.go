package entity

// Status constants for ApprovalInstance
const (
	InstanceStatusPending  = "PENDING"
	InstanceStatusApproved = "APPROVED"
	InstanceStatusRejected = "REJECTED"
	InstanceStatusRecalled = "RECALLED"
)

// Status constants for ApprovalWorkItem.
// WITHDRAWN is the recall-time status: the item was removed from play without
// a decision. It is distinct from reassignment, which keeps the item PENDING
// under a new approver.
const (
	WorkItemStatusPending   = "PENDING"
	WorkItemStatusApproved  = "APPROVED"
	WorkItemStatusRejected  = "REJECTED"
	WorkItemStatusWithdrawn = "WITHDRAWN"
)

// Action constants for ApprovalHistory
const (
	ActionSubmit   = "SUBMIT"
	ActionApprove  = "APPROVE"
	ActionReject   = "REJECT"
	ActionReassign = "REASSIGN"
	ActionRecall   = "RECALL"
)

// Decide action constants accepted by the engine
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)
