package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fleetcare/internal/entities"
	"fleetcare/internal/events"
	"fleetcare/pkg/eventbus"
)

// NotificationListener слушает события жизненного цикла заказ-нарядов и
// формирует уведомления. Каналы доставки (почта, мессенджеры) подключаются
// снаружи через NotifierFunc; по умолчанию уведомления просто логируются.
type NotificationListener struct {
	notify NotifierFunc
	logger *zap.Logger
}

type NotifierFunc func(ctx context.Context, companyID uint64, message string) error

func NewNotificationListener(notify NotifierFunc, logger *zap.Logger) *NotificationListener {
	l := &NotificationListener{notify: notify, logger: logger}
	if l.notify == nil {
		l.notify = l.logNotification
	}
	return l
}

// Register подписывает слушателя на шину.
func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.WorkOrderCreatedEvent{}.Name(), l.onCreated)
	bus.Subscribe(events.WorkOrderStatusChangedEvent{}.Name(), l.onStatusChanged)
	bus.Subscribe(events.ApprovalRequestedEvent{}.Name(), l.onApprovalRequested)
	bus.Subscribe(events.ApprovalResolvedEvent{}.Name(), l.onApprovalResolved)
}

func (l *NotificationListener) logNotification(_ context.Context, companyID uint64, message string) error {
	l.logger.Info("Уведомление",
		zap.Uint64("companyID", companyID),
		zap.String("message", message),
	)
	return nil
}

func (l *NotificationListener) onCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.WorkOrderCreatedEvent)
	if !ok {
		return nil
	}
	msg := fmt.Sprintf("Создан заказ-наряд %s (приоритет %s)", e.WorkOrder.Number, e.WorkOrder.Priority)
	return l.notify(ctx, e.WorkOrder.CompanyID, msg)
}

func (l *NotificationListener) onStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.WorkOrderStatusChangedEvent)
	if !ok {
		return nil
	}
	msg := fmt.Sprintf("Заказ-наряд %s: %s -> %s", e.WorkOrder.Number, e.From, e.To)

	// Срочные наряды подсвечиваем отдельно.
	if e.WorkOrder.Priority == entities.PriorityCritical {
		msg = "СРОЧНО! " + msg
	}
	return l.notify(ctx, e.WorkOrder.CompanyID, msg)
}

func (l *NotificationListener) onApprovalRequested(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.ApprovalRequestedEvent)
	if !ok {
		return nil
	}
	msg := fmt.Sprintf("Заказ-наряд %s: запрошено согласование %s на сумму %.2f",
		e.WorkOrder.Number, e.Approval.Type, e.Approval.Amount)
	return l.notify(ctx, e.WorkOrder.CompanyID, msg)
}

func (l *NotificationListener) onApprovalResolved(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.ApprovalResolvedEvent)
	if !ok {
		return nil
	}
	msg := fmt.Sprintf("Заказ-наряд %s: согласование %s -> %s",
		e.WorkOrder.Number, e.Approval.Type, e.Approval.Status)
	return l.notify(ctx, e.WorkOrder.CompanyID, msg)
}
