package realtime

import (
	"github.com/samber/do/v2"
	"github.com/voxcal/voxcal/internal/config"
	"github.com/voxcal/voxcal/internal/realtime"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (realtime.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewOpenAIClient(OpenAIConfig{
			URL:            c.OpenAIRealtimeURL,
			APIKey:         c.OpenAIAPIKey,
			ConnectTimeout: c.UpstreamConnectTimeout(),
		}), nil
	})
}
