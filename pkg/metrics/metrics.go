package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики ядра: переходы статусов и отказы авторизации.
var (
	WorkOrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetcare_work_order_transitions_total",
		Help: "Количество успешных переходов статусов заказ-нарядов",
	}, []string{"from", "to"})

	WorkOrderTransitionRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetcare_work_order_transitions_rejected_total",
		Help: "Количество отклоненных переходов статусов",
	}, []string{"reason"})

	AccessDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetcare_access_denied_total",
		Help: "Количество отказов Access Guard по причинам",
	}, []string{"reason"})

	ApprovalsRequestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetcare_approvals_requested_total",
		Help: "Количество запрошенных согласований по типам",
	}, []string{"type"})
)
