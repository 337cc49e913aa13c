package order

import (
	"github.com/quadrasoft/fiscal/internal/order/repository"
	"github.com/quadrasoft/fiscal/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
