package worker

import (
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/service"
)

// StartEventWorkers registers every in-process event subscriber: hiring
// notifications, report cache invalidation and the Kafka mirror. Any of them
// may be nil.
func StartEventWorkers(dispatcher events.Dispatcher, notifications *service.NotificationService, reports *service.ReportService, publisher *events.KafkaPublisher) {
	if dispatcher == nil {
		return
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if reports != nil {
		reports.Register(dispatcher)
	}
	publisher.Register(dispatcher)
}
