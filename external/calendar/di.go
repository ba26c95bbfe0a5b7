package calendar

import (
	"github.com/samber/do/v2"
	"github.com/voxcal/voxcal/external/googleauth"
	"github.com/voxcal/voxcal/internal/calendar"
	"github.com/voxcal/voxcal/internal/config"
	"github.com/voxcal/voxcal/internal/repository"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (calendar.Scheduler, error) {
		c := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		return NewGoogleScheduler(repo, GoogleSchedulerConfig{
			OAuth: googleauth.Config{
				ClientID:     c.GoogleClientID,
				ClientSecret: c.GoogleClientSecret,
				RedirectURI:  c.GoogleRedirectURI,
			},
			SecretKey: c.SecretKey,
			Timezone:  c.Timezone,
			Location:  c.Location(),
		}), nil
	})
}
