package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitly-client/api"
	"github.com/raushankrgupta/fitly-client/config"
	"github.com/raushankrgupta/fitly-client/models"
	"github.com/raushankrgupta/fitly-client/poller"
	"github.com/raushankrgupta/fitly-client/store"
	"github.com/raushankrgupta/fitly-client/utils"
)

func main() {
	config.LoadConfig()

	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, api.ErrReauthRequired) {
			_, _ = fmt.Fprintln(os.Stderr, api.ErrReauthRequired.Error())
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type globalFlags struct {
	apiURL    string
	stateDir  string
	storeKind string
	ephemeral bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "fitly",
		Short:         "Fitly command-line client: analyse outfits, try on products, manage the cart",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.apiURL, "api", config.APIBaseURL, "backend base URL")
	root.PersistentFlags().StringVar(&flags.stateDir, "state-dir", config.StateDir, "directory holding the session and cart")
	root.PersistentFlags().StringVar(&flags.storeKind, "store", config.StoreKind, "state storage: file|mongo|memory")
	root.PersistentFlags().BoolVar(&flags.ephemeral, "ephemeral", false, "keep state in memory for this run only")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(newLoginCmd(flags))
	root.AddCommand(newRegisterCmd(flags))
	root.AddCommand(newVerifyOTPCmd(flags))
	root.AddCommand(newForgotPasswordCmd(flags))
	root.AddCommand(newResetPasswordCmd(flags))
	root.AddCommand(newLogoutCmd(flags))
	root.AddCommand(newWhoamiCmd(flags))
	root.AddCommand(newAnalyzeCmd(flags))
	root.AddCommand(newTryOnCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newGalleryCmd(flags))
	root.AddCommand(newProfileCmd(flags))
	root.AddCommand(newFeedbackCmd(flags))
	root.AddCommand(newScrapeCmd(flags))
	root.AddCommand(newPreviewCmd(flags))
	root.AddCommand(newCartCmd(flags))
	return root
}

// app holds what a command needs. close releases external connections.
type app struct {
	session *store.SessionStore
	cart    *store.CartStore
	client  *api.Client
	results *poller.MemoryCache
	logger  *log.Logger
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func loadApp(ctx context.Context, flags *globalFlags, errOut io.Writer) (*app, error) {
	logger := quietLogger()
	if flags.verbose {
		logger = log.New(errOut, "", log.LstdFlags)
	}
	a := &app{logger: logger, results: poller.NewMemoryCache()}
	if !config.EnvFileFound {
		logger.Println("No .env file found, using default values or system environment variables")
	}

	backend, err := openBackend(ctx, flags, a)
	if err != nil {
		a.close()
		return nil, err
	}
	if config.SessionSecret != "" {
		backend = store.NewSealedBackend(backend, config.SessionSecret)
	}
	a.session = store.NewSessionStore(backend, logger)
	a.cart = store.NewCartStore(backend, logger)
	a.session.Subscribe(func(s models.Session) {
		logger.Printf("Session changed, authenticated=%t", s.IsAuthenticated)
	})

	opts := []api.Option{
		api.WithHTTPClient(&http.Client{
			Timeout:   config.HTTPTimeout,
			Transport: &utils.LatencyTransport{Logger: logger},
		}),
		api.WithRateLimit(config.RequestsPerSecond, 1),
		api.WithRefreshTimeout(config.RefreshTimeout),
		api.WithLogger(logger),
		api.WithReauthHandler(func(err error) {
			logger.Printf("Session cleared: %v", err)
		}),
	}
	if config.AWSBucketName != "" {
		uploader, err := utils.NewS3Uploader(ctx, config.AWSRegion, config.AWSBucketName)
		if err != nil {
			logger.Printf("S3 uploads disabled, images will be sent inline: %v", err)
		} else {
			opts = append(opts, api.WithUploader(uploader))
		}
	}

	a.client, err = api.New(flags.apiURL, a.session, opts...)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func openBackend(ctx context.Context, flags *globalFlags, a *app) (store.Backend, error) {
	kind := flags.storeKind
	if flags.ephemeral {
		kind = "memory"
	}
	switch kind {
	case "memory":
		return store.NewMemoryBackend(), nil
	case "mongo":
		client, err := utils.ConnectMongo(ctx, config.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			_ = client.Disconnect(context.Background())
		})
		return store.NewMongoBackend(client, config.DBName, "client_state"), nil
	case "", "file":
		if flags.stateDir == "" {
			return nil, errors.New("--state-dir is required for file storage")
		}
		return store.NewFileBackend(flags.stateDir), nil
	default:
		return nil, fmt.Errorf("unknown store %q (want file, mongo or memory)", kind)
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// withApp loads the app for the duration of fn.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := loadApp(ctx, flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
