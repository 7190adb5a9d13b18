package worker

import (
	"github.com/greenhouse-project/support-service/internal/service"
)

// StartNotificationWorker registers notification handlers on the event
// dispatcher; delivery itself runs on the dispatcher's worker goroutines.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
