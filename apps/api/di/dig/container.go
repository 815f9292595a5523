package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/degreeaudit/apps/api/echo"
	"github.com/trezcool/degreeaudit/core"
	"github.com/trezcool/degreeaudit/core/audit"
	"github.com/trezcool/degreeaudit/core/user"
	analyzersvc "github.com/trezcool/degreeaudit/services/analyzer"
	emailsvc "github.com/trezcool/degreeaudit/services/email"
	logsvc "github.com/trezcool/degreeaudit/services/logger"
	"github.com/trezcool/degreeaudit/storage/database"
	sqlxrepos "github.com/trezcool/degreeaudit/storage/database/sqlx"
)

const (
	ProviderHTTP      = "http"
	ProviderAnthropic = "anthropic"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newUserRepository(db *sqlx.DB) user.Repository {
	return sqlxrepos.NewUserRepository(db)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newAnalyzer(conf *core.Config) (audit.Analyzer, error) {
	switch conf.Analyzer.Provider {
	case ProviderHTTP, "":
		return analyzersvc.NewHTTPAnalyzer(conf.Analyzer.URL, conf.Analyzer.Timeout), nil
	case ProviderAnthropic:
		if conf.Analyzer.AnthropicAPIKey == "" {
			return nil, errors.New("analyzer.anthropicApiKey is required by the anthropic provider")
		}
		return analyzersvc.NewAnthropicAnalyzer(conf.Analyzer.AnthropicAPIKey, conf.Analyzer.Model, conf.Analyzer.Timeout), nil
	default:
		return nil, errors.Errorf("unknown analyzer provider %q", conf.Analyzer.Provider)
	}
}

func newMapping(conf *core.Config) (audit.Mapping, error) {
	return audit.LoadMapping(conf.Audit.MappingFile)
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newUserRepository))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newAnalyzer))
	must(c.Provide(newMapping))
	must(c.Provide(audit.NewService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
