package modules

import (
	"github.com/harborpeak/coverdesk/modules/orgchart"
	"github.com/harborpeak/coverdesk/pkg/application"
)

var BuiltInModules = []application.Module{
	orgchart.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
