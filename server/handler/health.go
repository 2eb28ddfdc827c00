package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Check is one readiness dependency, such as the journal database.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Liveness(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "alive"})
}

func (h *HealthHandler) Readiness(ctx context.Context, c *app.RequestContext) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	deps := utils.H{}
	ready := true
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			deps[check.Name] = err.Error()
			ready = false
			continue
		}
		deps[check.Name] = "healthy"
	}

	if !ready {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"status": "not_ready", "dependencies": deps})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"status": "ready", "dependencies": deps})
}
