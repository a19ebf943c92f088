package events

import "fleetcare/internal/entities"

// WorkOrderCreatedEvent - возникает после успешного сохранения нового заказ-наряда.
type WorkOrderCreatedEvent struct {
	WorkOrder *entities.WorkOrder
	ActorID   uint64
}

func (e WorkOrderCreatedEvent) Name() string { return "work_order.created" }

// WorkOrderStatusChangedEvent - возникает после примененного перехода статуса.
type WorkOrderStatusChangedEvent struct {
	WorkOrder *entities.WorkOrder
	From      entities.WorkOrderStatus
	To        entities.WorkOrderStatus
	ActorID   uint64
}

func (e WorkOrderStatusChangedEvent) Name() string { return "work_order.status_changed" }

// ApprovalRequestedEvent - запрошено согласование.
type ApprovalRequestedEvent struct {
	WorkOrder *entities.WorkOrder
	Approval  *entities.Approval
	ActorID   uint64
}

func (e ApprovalRequestedEvent) Name() string { return "work_order.approval_requested" }

// ApprovalResolvedEvent - согласование одобрено или отклонено.
type ApprovalResolvedEvent struct {
	WorkOrder *entities.WorkOrder
	Approval  *entities.Approval
	ActorID   uint64
}

func (e ApprovalResolvedEvent) Name() string { return "work_order.approval_resolved" }
