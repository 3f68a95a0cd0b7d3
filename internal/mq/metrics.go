package mq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Стадии, на которых может сорваться отправка задачи.
const (
	stageEncode  = "encode"
	stageSign    = "sign"
	stagePublish = "publish"
)

var (
	tasksPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certsend_tasks_published_total",
		Help: "Tasks confirmed by the broker.",
	})

	tasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certsend_tasks_failed_total",
		Help: "Tasks that failed before broker confirmation, by stage.",
	}, []string{"stage"})

	publishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "certsend_publish_duration_seconds",
		Help:    "Time from publish to broker confirmation.",
		Buckets: prometheus.DefBuckets,
	})
)
