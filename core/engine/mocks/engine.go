package mocks

import (
	"context"

	"disc3d-batch/core/engine"

	"github.com/stretchr/testify/mock"
)

// Engine is a mock implementation of engine.Engine
type Engine struct {
	mock.Mock
}

func (m *Engine) Call(ctx context.Context, op string, args engine.Args) (engine.Result, error) {
	ret := m.Called(ctx, op, args)
	if res, ok := ret.Get(0).(engine.Result); ok {
		return res, ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Engine) Close() error {
	args := m.Called()
	return args.Error(0)
}
