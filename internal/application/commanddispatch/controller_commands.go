package commanddispatch

import (
	"context"
	"fmt"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/application/controller"
)

// StartControllerCommand requests that a truck's controller begin running
// its periodic tasks.
type StartControllerCommand struct {
	Controller *controller.Controller
}

// StartControllerResponse is returned once the controller has launched.
type StartControllerResponse struct{}

// startControllerHandler implements common.RequestHandler for StartControllerCommand.
type startControllerHandler struct{}

func (startControllerHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StartControllerCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if err := cmd.Controller.Start(ctx); err != nil {
		return nil, err
	}
	return &StartControllerResponse{}, nil
}

// StopControllerCommand requests that a truck's controller stop its
// periodic tasks and release resources.
type StopControllerCommand struct {
	Controller *controller.Controller
}

// StopControllerResponse is returned once the controller has stopped.
type StopControllerResponse struct{}

type stopControllerHandler struct{}

func (stopControllerHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StopControllerCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if err := cmd.Controller.Stop(); err != nil {
		return nil, err
	}
	return &StopControllerResponse{}, nil
}

// NewMediator builds the mediator used by cmd/truck-controller to start and
// stop a truck's controller, following the same register-handlers-at-startup
// pattern the daemon entrypoint uses for its own commands.
func NewMediator() common.Mediator {
	m := common.NewMediator()
	_ = common.RegisterHandler[*StartControllerCommand](m, startControllerHandler{})
	_ = common.RegisterHandler[*StopControllerCommand](m, stopControllerHandler{})
	return m
}
