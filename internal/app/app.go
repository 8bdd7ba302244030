// Package app wires the application together and routes API Gateway
// requests to handlers.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/config"
	"github.com/jun/formdesk/internal/crypto"
	"github.com/jun/formdesk/internal/export"
	"github.com/jun/formdesk/internal/handler"
	"github.com/jun/formdesk/internal/identity"
	"github.com/jun/formdesk/internal/portal"
	"github.com/jun/formdesk/internal/render"
	"github.com/jun/formdesk/internal/secret"
	"github.com/jun/formdesk/internal/store"
)

// App holds the dependencies for the Lambda function.
type App struct {
	authHandler     *handler.AuthHandler
	templateHandler *handler.TemplateHandler
	documentHandler *handler.DocumentHandler
	exportHandler   *handler.ExportHandler
	cfg             *config.Config
	log             zerolog.Logger
}

// NewApp initializes the application dependencies.
func NewApp(ctx context.Context) *App {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	// The only direct environment read; everything else goes through Config.
	devMode := os.Getenv("DEV_MODE") == "true"

	var resolver secret.Resolver
	if devMode {
		resolver = secret.NewEnvResolver()
		log.Info().Msg("using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(awsCfg))
	}

	cfg, err := config.Load(ctx, resolver, devMode)
	if err != nil {
		panic(fmt.Sprintf("unable to load configuration, %v", err))
	}

	// In dev mode both the identity service and the stores fall back to
	// their in-memory implementations.
	var dynamoClient *dynamodb.Client
	var encryptor crypto.Encryptor
	if cfg.DevMode {
		encryptor = crypto.NewMockEncryptor()
		log.Info().Msg("using in-memory storage and MockEncryptor (DEV_MODE=true)")
	} else {
		dynamoClient = dynamodb.NewFromConfig(awsCfg)
		encryptor = crypto.NewKMSEncryptor(kms.NewFromConfig(awsCfg), cfg.KMSKeyID)
	}

	identityService := identity.NewService(dynamoClient, cfg.AccountsTable, encryptor)

	var docs store.Store
	if cfg.Drive.Enabled {
		driveStore, err := store.NewDriveStore(ctx, cfg.Drive.ClientID, cfg.Drive.ClientSecret, cfg.Drive.RefreshToken, cfg.Drive.BaseFolder)
		if err != nil {
			panic(fmt.Sprintf("unable to initialize drive store, %v", err))
		}
		docs = driveStore
		log.Info().Msg("using Google Drive document archive")
	} else {
		docs = store.NewDynamoStore(dynamoClient, cfg.DocumentsTable)
	}

	realizer := render.NewRealizer()

	return &App{
		authHandler:     handler.NewAuthHandler(identityService, cfg, log),
		templateHandler: handler.NewTemplateHandler(portal.NewCatalog()),
		documentHandler: handler.NewDocumentHandler(docs, cfg.JWTSecret, cfg.HistoryLimit, log),
		exportHandler:   handler.NewExportHandler(realizer, export.NewAdapter(), log),
		cfg:             cfg,
		log:             log,
	}
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	app.log.Info().Str("method", method).Str("path", path).Msg("request")

	// CORS Preflight
	if method == "OPTIONS" {
		return app.corsResponse(events.APIGatewayProxyResponse{StatusCode: 204}), nil
	}

	// Security: requests must come through CloudFront in production.
	if !app.cfg.DevMode && app.cfg.OriginSecret != "" {
		if req.Headers["X-Origin-Verify"] != app.cfg.OriginSecret && req.Headers["x-origin-verify"] != app.cfg.OriginSecret {
			app.log.Warn().Msg("missing or invalid X-Origin-Verify header")
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusForbidden,
				Body:       "Forbidden: Access denied",
			}, nil
		}
	}

	// Strip /api prefix if present (for CloudFront proxying)
	if strings.HasPrefix(path, "/api") {
		path = strings.TrimPrefix(path, "/api")
	}

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}

	// /auth
	if strings.HasPrefix(path, "/auth") {
		if path == "/auth/register" && method == "POST" {
			return app.corsResponse(app.must(app.authHandler.Register(ctx, req))), nil
		}
		if path == "/auth/login" && method == "POST" {
			return app.corsResponse(app.must(app.authHandler.Login(ctx, req))), nil
		}
		if path == "/auth/anonymous" && method == "GET" {
			return app.corsResponse(app.must(app.authHandler.Anonymous(ctx, req))), nil
		}
		if path == "/auth/credential" && method == "POST" {
			return app.corsResponse(app.must(app.authHandler.Credential(ctx, req))), nil
		}
		if path == "/auth/logout" && method == "POST" {
			return app.corsResponse(app.must(app.authHandler.Logout(ctx, req))), nil
		}
		if path == "/auth/user" && method == "GET" {
			return app.corsResponse(app.must(app.authHandler.GetUser(ctx, req))), nil
		}
	}

	// /templates
	if strings.HasPrefix(path, "/templates") {
		if path == "/templates" && method == "GET" {
			return app.corsResponse(app.must(app.templateHandler.List(ctx, req))), nil
		}
		if len(path) > len("/templates/") && method == "GET" {
			parts := strings.Split(strings.Trim(path, "/"), "/")
			req.PathParameters["id"] = parts[len(parts)-1]
			return app.corsResponse(app.must(app.templateHandler.Get(ctx, req))), nil
		}
	}

	// /documents
	if path == "/documents" && method == "POST" {
		return app.corsResponse(app.must(app.documentHandler.Save(ctx, req))), nil
	}
	if path == "/documents" && method == "GET" {
		return app.corsResponse(app.must(app.documentHandler.History(ctx, req))), nil
	}

	// /export
	if path == "/export/pdf" && method == "POST" {
		return app.corsResponse(app.must(app.exportHandler.PDF(ctx, req))), nil
	}
	if path == "/export/docx" && method == "POST" {
		return app.corsResponse(app.must(app.exportHandler.DOCX(ctx, req))), nil
	}

	return app.corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("Not Found: %s %s", method, path),
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func (app *App) corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = app.cfg.FrontendURL
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, converting errors into a 500.
func (app *App) must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		app.log.Error().Err(err).Msg("handler error")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}
