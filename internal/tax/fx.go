package tax

import (
	"github.com/quadrasoft/fiscal/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.resolver",
	fx.Provide(service.NewResolver),
)
