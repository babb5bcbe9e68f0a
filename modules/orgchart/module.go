package orgchart

import (
	"embed"

	"github.com/harborpeak/coverdesk/modules/orgchart/infrastructure/persistence"
	"github.com/harborpeak/coverdesk/modules/orgchart/presentation/controllers"
	"github.com/harborpeak/coverdesk/modules/orgchart/services"
	"github.com/harborpeak/coverdesk/pkg/application"
)

//go:embed infrastructure/persistence/schema/orgchart-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	app.RegisterServices(
		services.NewChartService(
			persistence.NewChartRepository(),
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewChartAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "orgchart"
}
