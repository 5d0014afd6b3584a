package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_comments_created_total",
		Help: "Созданные комментарии по типу (comment|reply).",
	}, []string{"kind"})

	commentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_comments_deleted_total",
		Help: "Удалённые комментарии, включая каскадно удалённые ответы.",
	})

	paymentsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_payments_reconciled_total",
		Help: "Результаты сверки платёжных колбэков.",
	}, []string{"result"})
)
