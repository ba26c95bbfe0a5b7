package httpapi

import (
	"github.com/samber/do/v2"
	"github.com/voxcal/voxcal/internal/auth"
	"github.com/voxcal/voxcal/internal/bridge"
	"github.com/voxcal/voxcal/internal/config"
	"github.com/voxcal/voxcal/internal/repository"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		return NewServer(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[*bridge.Registry](i),
			do.MustInvoke[auth.Authenticator](i),
		), nil
	})
}
