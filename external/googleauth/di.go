package googleauth

import (
	"github.com/samber/do/v2"
	"github.com/voxcal/voxcal/internal/auth"
	"github.com/voxcal/voxcal/internal/config"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (auth.Authenticator, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewAuthenticator(Config{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURI:  c.GoogleRedirectURI,
		}), nil
	})
}
