// Package notify bridges engine events to approver and submitter
// notifications. The shipped implementation logs; delivery transports plug in
// behind port.Notifier.
package notify

import (
	"context"

	"github.com/crmforge/approval-engine/internal/application/dispatcher"
	"github.com/crmforge/approval-engine/internal/application/port"
	"github.com/crmforge/approval-engine/internal/domain/entity"
	"github.com/crmforge/approval-engine/internal/domain/event"
	"go.uber.org/zap"
)

// LogNotifier implements port.Notifier by writing structured log lines.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// WorkItemAssigned announces a newly fanned-out work item
func (n *LogNotifier) WorkItemAssigned(ctx context.Context, tenantID string, instanceID int64, stepNumber int, approverID string) {
	n.logger.Info("Approval requested",
		zap.String("tenant_id", tenantID),
		zap.Int64("instance_id", instanceID),
		zap.Int("step", stepNumber),
		zap.String("approver_id", approverID))
}

// InstanceCompleted announces a terminal transition
func (n *LogNotifier) InstanceCompleted(ctx context.Context, tenantID string, instanceID int64, status, completedBy string) {
	n.logger.Info("Approval completed",
		zap.String("tenant_id", tenantID),
		zap.Int64("instance_id", instanceID),
		zap.String("status", status),
		zap.String("completed_by", completedBy))
}

// Verify interface compliance
var _ port.Notifier = (*LogNotifier)(nil)

// RegisterHandlers subscribes the notifier to the engine's event stream.
func RegisterHandlers(d dispatcher.Dispatcher, notifier port.Notifier) {
	fanOut := func(ctx context.Context, evt *event.Event) error {
		step := int(evt.GetPayloadInt("step"))
		for _, approverID := range payloadStrings(evt, "approvers") {
			notifier.WorkItemAssigned(ctx, evt.TenantID, evt.InstanceID, step, approverID)
		}
		return nil
	}
	d.SubscribeNamed(event.TypeInstanceSubmitted, "notify-assigned", fanOut)
	d.SubscribeNamed(event.TypeStepAdvanced, "notify-assigned", fanOut)

	completed := func(status string) dispatcher.Handler {
		return func(ctx context.Context, evt *event.Event) error {
			notifier.InstanceCompleted(ctx, evt.TenantID, evt.InstanceID, status, evt.GetPayloadString("completed_by"))
			return nil
		}
	}
	d.SubscribeNamed(event.TypeInstanceApproved, "notify-completed", completed(entity.InstanceStatusApproved))
	d.SubscribeNamed(event.TypeInstanceRejected, "notify-completed", completed(entity.InstanceStatusRejected))
	d.SubscribeNamed(event.TypeInstanceRecalled, "notify-completed", func(ctx context.Context, evt *event.Event) error {
		notifier.InstanceCompleted(ctx, evt.TenantID, evt.InstanceID, entity.InstanceStatusRecalled, evt.GetPayloadString("recalled_by"))
		return nil
	})
}

// payloadStrings reads a string-slice payload value. Events stay in process,
// but a JSON roundtrip turns []string into []interface{}, so handle both.
func payloadStrings(evt *event.Event, key string) []string {
	switch v := evt.Payload[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
