package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crmforge/approval-engine/internal/application/dispatcher"
	"github.com/crmforge/approval-engine/internal/application/port"
	"github.com/crmforge/approval-engine/internal/domain/entity"
	"github.com/crmforge/approval-engine/internal/domain/event"
	"github.com/crmforge/approval-engine/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SubmitRequest starts a new approval instance for a target record.
type SubmitRequest struct {
	TenantID            string
	SubmitterID         string
	TargetObjectType    string
	TargetRecordID      string
	ProcessDefinitionID int64
	Comment             string
}

// DecideRequest records one approver's decision on one work item.
type DecideRequest struct {
	TenantID   string
	ActorID    string
	WorkItemID int64
	Action     string // entity.DecisionApprove or entity.DecisionReject
	Comment    string
}

// ReassignRequest moves a pending work item to a new approver. ActorIsAdmin
// is resolved by the caller; the engine only compares ids.
type ReassignRequest struct {
	TenantID      string
	ActorID       string
	ActorIsAdmin  bool
	WorkItemID    int64
	NewApproverID string
	Comment       string
}

// ApprovalEngine orchestrates submission, decision processing, step
// advancement, recall and reassignment. It is the sole writer of instance
// status/current step and the sole trigger of work-item fan-out.
type ApprovalEngine interface {
	Submit(ctx context.Context, req SubmitRequest) (*InstanceView, error)
	Decide(ctx context.Context, req DecideRequest) (*WorkItemView, error)
	Recall(ctx context.Context, tenantID, actorID string, instanceID int64, comment string) error
	Reassign(ctx context.Context, req ReassignRequest) (*WorkItemView, error)

	GetInstance(ctx context.Context, tenantID string, id int64) (*InstanceView, error)
	ListInstances(ctx context.Context, tenantID string, filter entity.InstanceFilter, limit int, cursor string) (*InstancePage, error)
	GetWorkItem(ctx context.Context, tenantID string, id int64) (*WorkItemView, error)
	ListWorkItems(ctx context.Context, tenantID, approverID string, pendingOnly bool, limit int, cursor string) (*WorkItemPage, error)
	GetHistory(ctx context.Context, tenantID string, instanceID int64) ([]*HistoryView, error)
}

type approvalEngine struct {
	instances   port.InstanceRepository
	workItems   port.WorkItemRepository
	history     port.HistoryRepository
	definitions port.DefinitionStore
	txManager   port.TransactionManager
	directory   port.Directory
	events      dispatcher.Dispatcher
	locks       *keyedMutex
	logger      Logger
}

// NewApprovalEngine creates a new ApprovalEngine
func NewApprovalEngine(
	instances port.InstanceRepository,
	workItems port.WorkItemRepository,
	history port.HistoryRepository,
	definitions port.DefinitionStore,
	txManager port.TransactionManager,
	directory port.Directory,
	events dispatcher.Dispatcher,
	logger Logger,
) ApprovalEngine {
	return &approvalEngine{
		instances:   instances,
		workItems:   workItems,
		history:     history,
		definitions: definitions,
		txManager:   txManager,
		directory:   directory,
		events:      events,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

// Submit creates a pending instance at step 1, fans out one work item per
// step-1 approver and appends the SUBMIT history row, all in one transaction.
// The step list is snapshotted onto the instance so later advancement never
// re-reads the live definition.
func (e *approvalEngine) Submit(ctx context.Context, req SubmitRequest) (*InstanceView, error) {
	def, err := e.definitions.GetByID(ctx, req.TenantID, req.ProcessDefinitionID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%w: definition %d", entity.ErrInvalidProcess, req.ProcessDefinitionID)
		}
		return nil, err
	}
	if !def.Eligible() {
		return nil, fmt.Errorf("%w: definition %d is inactive or has no usable steps", entity.ErrInvalidProcess, def.ID)
	}

	steps := make([]entity.ProcessStep, len(def.Steps))
	copy(steps, def.Steps)
	for i := range steps {
		steps[i].Number = i + 1
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("encode steps snapshot: %w", err)
	}

	// The target lock makes the pending-existence check and the insert one
	// serialized unit; the partial unique index in the schema backstops it.
	unlock := e.locks.Lock(targetKey(req.TenantID, req.TargetObjectType, req.TargetRecordID))
	defer unlock()

	now := time.Now()
	instance := &entity.ApprovalInstance{
		TenantID:            req.TenantID,
		ProcessDefinitionID: def.ID,
		ProcessName:         def.Name,
		TargetObjectType:    req.TargetObjectType,
		TargetRecordID:      req.TargetRecordID,
		Status:              entity.InstanceStatusPending,
		CurrentStep:         1,
		StepsJSON:           string(stepsJSON),
		SubmittedBy:         req.SubmitterID,
		SubmittedAt:         now,
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := e.instances.GetPendingByTarget(txCtx, req.TenantID, req.TargetObjectType, req.TargetRecordID)
		if err != nil {
			return fmt.Errorf("check pending instance: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: instance %d", entity.ErrAlreadyPending, existing.ID)
		}

		if err := e.instances.Create(txCtx, instance); err != nil {
			return fmt.Errorf("create instance: %w", err)
		}

		if err := e.fanOut(txCtx, instance, steps[0], now); err != nil {
			return err
		}

		return e.history.Create(txCtx, &entity.ApprovalHistory{
			TenantID:   req.TenantID,
			InstanceID: instance.ID,
			ActorID:    req.SubmitterID,
			Action:     entity.ActionSubmit,
			Comment:    req.Comment,
			CreatedAt:  now,
		})
	})
	if err != nil {
		e.logger.Error("Submit failed", "error", err,
			"tenant_id", req.TenantID,
			"target", req.TargetObjectType+"/"+req.TargetRecordID,
		)
		return nil, err
	}

	e.logger.Info("Instance submitted",
		"tenant_id", req.TenantID,
		"instance_id", instance.ID,
		"process", def.Name,
		"step1_approvers", len(steps[0].ApproverIDs),
	)

	e.emit(ctx, event.NewEvent(event.TypeInstanceSubmitted, req.TenantID, instance.ID, map[string]interface{}{
		"submitted_by": req.SubmitterID,
		"step":         1,
		"approvers":    steps[0].ApproverIDs,
	}))

	return e.instanceView(ctx, instance), nil
}

// Decide records an approve/reject on a work item and drives the owning
// instance: reject is immediately terminal; the approval that resolves the
// last pending item of a step advances to the next step or finalizes the
// instance. The per-instance lock plus a single transaction guarantee the
// advancement happens exactly once per step.
func (e *approvalEngine) Decide(ctx context.Context, req DecideRequest) (*WorkItemView, error) {
	var trigger workflow.Trigger
	var itemStatus, action string
	switch req.Action {
	case entity.DecisionApprove:
		trigger, itemStatus, action = workflow.TriggerApprove, entity.WorkItemStatusApproved, entity.ActionApprove
	case entity.DecisionReject:
		trigger, itemStatus, action = workflow.TriggerReject, entity.WorkItemStatusRejected, entity.ActionReject
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAction, req.Action)
	}

	item, err := e.loadWorkItem(ctx, req.TenantID, req.WorkItemID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(instanceKey(item.InstanceID))
	defer unlock()

	var pending []*event.Event
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err = e.loadWorkItem(txCtx, req.TenantID, req.WorkItemID)
		if err != nil {
			return err
		}
		if !item.IsPending() {
			return fmt.Errorf("%w: work item %d is %s", entity.ErrNotPending, item.ID, item.Status)
		}
		if item.ApproverID != req.ActorID {
			return fmt.Errorf("%w: work item %d", entity.ErrNotAssignedApprover, item.ID)
		}

		instance, err := e.loadInstance(txCtx, req.TenantID, item.InstanceID)
		if err != nil {
			return err
		}
		if !instance.IsPending() {
			return fmt.Errorf("%w: instance %d is %s", entity.ErrNotPending, instance.ID, instance.Status)
		}

		itemMachine := workflow.NewWorkItemMachine(workflow.State(item.Status))
		if err := itemMachine.Fire(txCtx, trigger); err != nil {
			return fmt.Errorf("%w: work item %d", entity.ErrNotPending, item.ID)
		}

		now := time.Now()
		if err := e.workItems.Complete(txCtx, item.ID, itemStatus, req.Comment, now); err != nil {
			return fmt.Errorf("complete work item: %w", err)
		}

		step := item.StepNumber
		if err := e.history.Create(txCtx, &entity.ApprovalHistory{
			TenantID:   req.TenantID,
			InstanceID: instance.ID,
			ActorID:    req.ActorID,
			Action:     action,
			StepNumber: &step,
			Comment:    req.Comment,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		if req.Action == entity.DecisionReject {
			// A single reject at any step is terminal. Sibling pending items
			// stay untouched for audit.
			evt, err := e.finalize(txCtx, instance, workflow.TriggerReject, entity.InstanceStatusRejected, req.ActorID, now)
			if err != nil {
				return err
			}
			pending = append(pending, evt)
			return nil
		}

		remaining, err := e.workItems.CountPending(txCtx, instance.ID, item.StepNumber)
		if err != nil {
			return fmt.Errorf("count pending items: %w", err)
		}
		if remaining > 0 {
			return nil
		}

		steps, err := instance.Steps()
		if err != nil {
			return err
		}
		if item.StepNumber < len(steps) {
			next := steps[item.StepNumber]
			if err := e.instances.AdvanceStep(txCtx, instance.ID, next.Number); err != nil {
				return fmt.Errorf("advance step: %w", err)
			}
			if err := e.fanOut(txCtx, instance, next, now); err != nil {
				return err
			}
			pending = append(pending, event.NewEvent(event.TypeStepAdvanced, req.TenantID, instance.ID, map[string]interface{}{
				"step":      next.Number,
				"approvers": next.ApproverIDs,
			}))
			return nil
		}

		evt, err := e.finalize(txCtx, instance, workflow.TriggerApprove, entity.InstanceStatusApproved, req.ActorID, now)
		if err != nil {
			return err
		}
		pending = append(pending, evt)
		return nil
	})
	if err != nil {
		e.logger.Error("Decide failed", "error", err,
			"tenant_id", req.TenantID,
			"work_item_id", req.WorkItemID,
			"action", req.Action,
		)
		return nil, err
	}

	e.logger.Info("Decision recorded",
		"tenant_id", req.TenantID,
		"work_item_id", req.WorkItemID,
		"instance_id", item.InstanceID,
		"action", req.Action,
		"step", item.StepNumber,
	)
	for _, evt := range pending {
		e.emit(ctx, evt)
	}

	decided, err := e.loadWorkItem(ctx, req.TenantID, req.WorkItemID)
	if err != nil {
		return nil, err
	}
	return e.workItemView(ctx, decided), nil
}

// Recall withdraws a still-pending instance. Only the original submitter may
// recall; decided work items keep their terminal status, pending ones move to
// WITHDRAWN.
func (e *approvalEngine) Recall(ctx context.Context, tenantID, actorID string, instanceID int64, comment string) error {
	instance, err := e.loadInstance(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(instanceKey(instanceID))
	defer unlock()

	var recalled *event.Event
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		instance, err = e.loadInstance(txCtx, tenantID, instanceID)
		if err != nil {
			return err
		}
		if !instance.IsPending() {
			return fmt.Errorf("%w: instance %d is %s", entity.ErrNotPending, instance.ID, instance.Status)
		}
		if instance.SubmittedBy != actorID {
			return fmt.Errorf("%w: instance %d", entity.ErrNotSubmitter, instance.ID)
		}

		machine := workflow.NewInstanceMachine(workflow.State(instance.Status))
		if err := machine.Fire(txCtx, workflow.TriggerRecall); err != nil {
			return fmt.Errorf("%w: instance %d", entity.ErrNotPending, instance.ID)
		}

		now := time.Now()
		if err := e.instances.Complete(txCtx, instance.ID, entity.InstanceStatusRecalled, actorID, now); err != nil {
			return fmt.Errorf("recall instance: %w", err)
		}
		if err := e.workItems.WithdrawPending(txCtx, instance.ID, now); err != nil {
			return fmt.Errorf("withdraw pending items: %w", err)
		}
		if err := e.history.Create(txCtx, &entity.ApprovalHistory{
			TenantID:   tenantID,
			InstanceID: instance.ID,
			ActorID:    actorID,
			Action:     entity.ActionRecall,
			Comment:    comment,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		recalled = event.NewEvent(event.TypeInstanceRecalled, tenantID, instance.ID, map[string]interface{}{
			"recalled_by": actorID,
		})
		return nil
	})
	if err != nil {
		e.logger.Error("Recall failed", "error", err, "tenant_id", tenantID, "instance_id", instanceID)
		return err
	}

	e.logger.Info("Instance recalled", "tenant_id", tenantID, "instance_id", instanceID)
	e.emit(ctx, recalled)
	return nil
}

// Reassign swaps a pending work item's approver in place. The actor must be
// the current approver or an admin (resolved by the caller). The first
// reassignment preserves the original approver for provenance.
func (e *approvalEngine) Reassign(ctx context.Context, req ReassignRequest) (*WorkItemView, error) {
	item, err := e.loadWorkItem(ctx, req.TenantID, req.WorkItemID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(instanceKey(item.InstanceID))
	defer unlock()

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err = e.loadWorkItem(txCtx, req.TenantID, req.WorkItemID)
		if err != nil {
			return err
		}
		if !item.IsPending() {
			return fmt.Errorf("%w: work item %d is %s", entity.ErrNotPending, item.ID, item.Status)
		}
		if item.ApproverID != req.ActorID && !req.ActorIsAdmin {
			return fmt.Errorf("%w: work item %d", entity.ErrNotAuthorized, item.ID)
		}

		now := time.Now()
		setOriginal := item.OriginalApproverID == ""
		if err := e.workItems.Reassign(txCtx, item.ID, req.NewApproverID, req.ActorID, req.Comment, setOriginal, now); err != nil {
			return fmt.Errorf("reassign work item: %w", err)
		}

		step := item.StepNumber
		return e.history.Create(txCtx, &entity.ApprovalHistory{
			TenantID:   req.TenantID,
			InstanceID: item.InstanceID,
			ActorID:    req.ActorID,
			Action:     entity.ActionReassign,
			StepNumber: &step,
			Comment:    req.Comment,
			CreatedAt:  now,
		})
	})
	if err != nil {
		e.logger.Error("Reassign failed", "error", err,
			"tenant_id", req.TenantID,
			"work_item_id", req.WorkItemID,
		)
		return nil, err
	}

	e.logger.Info("Work item reassigned",
		"tenant_id", req.TenantID,
		"work_item_id", req.WorkItemID,
		"new_approver", req.NewApproverID,
	)
	e.emit(ctx, event.NewEvent(event.TypeWorkItemReassigned, req.TenantID, item.InstanceID, map[string]interface{}{
		"item_id":      req.WorkItemID,
		"new_approver": req.NewApproverID,
		"step":         item.StepNumber,
	}))

	updated, err := e.loadWorkItem(ctx, req.TenantID, req.WorkItemID)
	if err != nil {
		return nil, err
	}
	return e.workItemView(ctx, updated), nil
}

// fanOut creates one pending work item per approver of the activating step.
func (e *approvalEngine) fanOut(ctx context.Context, instance *entity.ApprovalInstance, step entity.ProcessStep, now time.Time) error {
	items := make([]*entity.ApprovalWorkItem, 0, len(step.ApproverIDs))
	for _, approverID := range step.ApproverIDs {
		items = append(items, &entity.ApprovalWorkItem{
			TenantID:   instance.TenantID,
			InstanceID: instance.ID,
			StepNumber: step.Number,
			ApproverID: approverID,
			Status:     entity.WorkItemStatusPending,
			AssignedAt: now,
		})
	}
	if err := e.workItems.CreateBatch(ctx, items); err != nil {
		return fmt.Errorf("fan out step %d: %w", step.Number, err)
	}
	return nil
}

// finalize performs the terminal instance transition and builds its event.
func (e *approvalEngine) finalize(ctx context.Context, instance *entity.ApprovalInstance, trigger workflow.Trigger, status, actorID string, now time.Time) (*event.Event, error) {
	machine := workflow.NewInstanceMachine(workflow.State(instance.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, fmt.Errorf("%w: instance %d", entity.ErrNotPending, instance.ID)
	}
	if err := e.instances.Complete(ctx, instance.ID, status, actorID, now); err != nil {
		return nil, fmt.Errorf("complete instance: %w", err)
	}

	var typ event.Type
	if status == entity.InstanceStatusApproved {
		typ = event.TypeInstanceApproved
	} else {
		typ = event.TypeInstanceRejected
	}
	return event.NewEvent(typ, instance.TenantID, instance.ID, map[string]interface{}{
		"completed_by": actorID,
	}), nil
}

func (e *approvalEngine) emit(ctx context.Context, evt *event.Event) {
	if e.events == nil || evt == nil {
		return
	}
	e.events.DispatchAsync(ctx, evt)
}

func (e *approvalEngine) loadInstance(ctx context.Context, tenantID string, id int64) (*entity.ApprovalInstance, error) {
	instance, err := e.instances.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: instance %d", entity.ErrNotFound, id)
	}
	return instance, nil
}

func (e *approvalEngine) loadWorkItem(ctx context.Context, tenantID string, id int64) (*entity.ApprovalWorkItem, error) {
	item, err := e.workItems.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: work item %d", entity.ErrNotFound, id)
	}
	return item, nil
}
