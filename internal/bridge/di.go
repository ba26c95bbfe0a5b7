package bridge

import (
	"github.com/samber/do/v2"
	"github.com/voxcal/voxcal/internal/calendar"
	"github.com/voxcal/voxcal/internal/config"
	"github.com/voxcal/voxcal/internal/realtime"
	"github.com/voxcal/voxcal/internal/repository"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Registry, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewRegistry(Deps{
			Realtime:  do.MustInvoke[realtime.Client](i),
			Scheduler: do.MustInvoke[calendar.Scheduler](i),
			Repo:      do.MustInvoke[repository.Repository](i),
			Voice:     c.OpenAIVoice,
			Timezone:  c.Timezone,
			Location:  c.Location(),
		}), nil
	})
}
