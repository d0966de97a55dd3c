package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/collegedash/college_dashboard/internal/events"
	"github.com/collegedash/college_dashboard/internal/logging"
)

// publishEvent fires an event keyed by user id. Delivery failures are logged
// and never fail the request.
func publishEvent(c echo.Context, p *events.Producer, topic string, key uint, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, fmt.Sprint(key), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "topic", topic, "error", err)
	}
}
