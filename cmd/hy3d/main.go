// hy3d submits Hunyuan3D generation jobs, polls them to completion and
// saves the resulting model file.
//
// Usage:
//
//	hy3d generate --prompt "a cute robot toy"       # text to 3D
//	hy3d generate --mode IMAGE --image-url <url>    # image to 3D
//	hy3d status --job <id>                          # one-shot status query
//	hy3d secrets save --id <id> --key <key>         # store credentials
//	hy3d secrets test                               # verify stored credentials
//	hy3d secrets clear                              # remove stored credentials
//	hy3d version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fooni/hy3d/config"
	"github.com/fooni/hy3d/hunyuan"
	"github.com/fooni/hy3d/internal/metrics"
	"github.com/fooni/hy3d/jobs"
	"github.com/fooni/hy3d/payload"
	"github.com/fooni/hy3d/types"
	"github.com/fooni/hy3d/vault"
)

// Version information, injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Unexpected panics become a generic error exit instead of a
	// stack trace dumped at the user.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "secrets":
		runSecrets(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// stringList collects a repeatable flag value.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	prompt := fs.String("prompt", "", "Text prompt")
	mode := fs.String("mode", "TEXT", "Input mode: TEXT, IMAGE or TEXT_IMAGE")
	source := fs.String("source", "", "Image source: URL, BASE64 or FILE (inferred from image flags when empty)")
	imageURL := fs.String("image-url", "", "Reference image URL")
	imageB64 := fs.String("image-b64", "", "Reference image as base64")
	multiview := fs.Bool("multiview", false, "Treat images as multi-view references")
	var images stringList
	fs.Var(&images, "image", "Reference image file or value (repeatable)")
	index := fs.Int("index", 0, "Which file to use when not in multi-view mode")
	format := fs.String("format", "", "Result format: GLB, OBJ or FBX")
	pbr := fs.Bool("pbr", false, "Enable PBR materials")
	frontMask := fs.Bool("front-mask", false, "Send the image as a front-view mask")
	region := fs.String("region", "", "Provider region")
	outputDir := fs.String("output-dir", "", "Directory for the downloaded model")
	outputName := fs.String("output-name", "", "Base name for the downloaded model")
	secretID := fs.String("secret-id", "", "SecretId (overrides stored credentials)")
	secretKey := fs.String("secret-key", "", "SecretKey (overrides stored credentials)")
	password := fs.String("password", "", "Password for the encrypted credential store")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting generation",
		zap.String("version", Version),
		zap.String("mode", *mode))

	if *format == "" {
		*format = cfg.Generation.ResultFormat
	}
	if *region == "" {
		*region = cfg.Region
	}
	if *outputDir == "" {
		*outputDir = cfg.Generation.OutputDir
	}
	if *outputName == "" {
		*outputName = cfg.Generation.OutputName
	}

	settings := payload.Settings{
		InputMode:      types.InputMode(strings.ToUpper(*mode)),
		ImageSource:    resolveSource(*source, *imageURL, *imageB64),
		MultiView:      *multiview,
		Prompt:         *prompt,
		ImageURL:       *imageURL,
		ImageBase64:    *imageB64,
		ImageValues:    images,
		ImageFileIndex: *index,
		ResultFormat:   types.ResultFormat(strings.ToUpper(*format)),
		EnablePBR:      *pbr || cfg.Generation.EnablePBR,
		FrontMask:      *frontMask,
		Base64LimitMB:  cfg.Generation.Base64LimitMB,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := buildPipeline(cfg, *region, *outputDir, *outputName, logger)
	controller, err := pipeline.Launch(ctx, settings, hunyuan.CredentialInput{
		SecretID:  *secretID,
		SecretKey: *secretKey,
		Password:  *password,
	})
	if err != nil {
		fail(logger, "submission failed", err)
	}

	snap := pipeline.Board().Snapshot()
	fmt.Printf("Job %s submitted (%s)\n", snap.JobID, snap.Summary)

	if err := jobs.NewScheduler(logger).Run(ctx, controller); err != nil {
		fail(logger, "polling interrupted", err)
	}

	snap = pipeline.Board().Snapshot()
	if snap.Status == jobs.StateError {
		fmt.Fprintf(os.Stderr, "Job %s failed: %s\n", snap.JobID, snap.LastError)
		os.Exit(1)
	}
	fmt.Printf("Job %s: %s\n", snap.JobID, snap.Status)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	jobID := fs.String("job", "", "Job id to query")
	region := fs.String("region", "", "Provider region")
	secretID := fs.String("secret-id", "", "SecretId (overrides stored credentials)")
	secretKey := fs.String("secret-key", "", "SecretKey (overrides stored credentials)")
	password := fs.String("password", "", "Password for the encrypted credential store")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	if *region == "" {
		*region = cfg.Region
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := buildPipeline(cfg, *region, cfg.Generation.OutputDir, cfg.Generation.OutputName, logger)
	status, err := pipeline.Status(ctx, *jobID, hunyuan.CredentialInput{
		SecretID:  *secretID,
		SecretKey: *secretKey,
		Password:  *password,
	})
	if err != nil {
		fail(logger, "status query failed", err)
	}

	fmt.Printf("Job %s: %s\n", *jobID, status.StatusValue())
	if status.ErrorMessage != "" {
		fmt.Printf("  error: %s\n", status.ErrorMessage)
	}
	if url := status.FirstResultURL(); url != "" {
		fmt.Printf("  result: %s\n", url)
	}
}

func runSecrets(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "secrets requires a subcommand: save, test or clear")
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("secrets "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	secretID := fs.String("id", "", "SecretId")
	secretKey := fs.String("key", "", "SecretKey")
	mode := fs.String("mode", "", "Storage mode: NONE, SESSION or DISK")
	password := fs.String("password", "", "Encryption password (required for DISK)")
	remember := fs.Bool("remember", false, "Remember the password on disk")
	fs.Parse(rest)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	if *mode == "" {
		*mode = cfg.Secrets.StorageMode
	}
	store := vault.New(vaultDir(cfg), logger)

	switch sub {
	case "save":
		err := store.Store(vault.SaveRequest{
			SecretID:         *secretID,
			SecretKey:        *secretKey,
			Mode:             types.StorageMode(strings.ToUpper(*mode)),
			Password:         *password,
			RememberPassword: *remember,
		})
		if err != nil {
			fail(logger, "failed to save credentials", err)
		}
		fmt.Printf("Credentials saved (%s)\n", strings.ToUpper(*mode))

	case "test":
		if err := store.SelfTest(*password); err != nil {
			fail(logger, "credential store check failed", err)
		}
		fmt.Println("OK: stored credentials decrypt correctly")

	case "clear":
		store.ClearStoredSecret()
		store.ClearSessionSecret()
		store.ClearDiskPassword()
		fmt.Println("Stored credentials removed")

	default:
		fmt.Fprintf(os.Stderr, "Unknown secrets subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// resolveSource infers the image source when the flag is not set.
func resolveSource(source, imageURL, imageB64 string) types.ImageSource {
	if source != "" {
		return types.ImageSource(strings.ToUpper(source))
	}
	switch {
	case imageURL != "":
		return types.SourceURL
	case imageB64 != "":
		return types.SourceBase64
	default:
		return types.SourceFile
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.NewLoader().WithConfigPath(path).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func vaultDir(cfg *config.Config) string {
	if cfg.Secrets.Dir != "" {
		return cfg.Secrets.Dir
	}
	return vault.DefaultDir()
}

func buildPipeline(cfg *config.Config, region, outputDir, outputName string, logger *zap.Logger) *jobs.Pipeline {
	var registerer prometheus.Registerer
	if cfg.Metrics.Enabled {
		registerer = prometheus.DefaultRegisterer
	}
	store := vault.New(vaultDir(cfg), logger)
	return jobs.NewPipeline(jobs.PipelineConfig{
		Client: hunyuan.NewClient(hunyuan.ClientConfig{
			Endpoint: cfg.Client.Endpoint,
			Timeout:  cfg.Client.RequestTimeout,
		}, logger),
		Resolver:   hunyuan.NewResolver(store, logger),
		Busy:       &jobs.BusyCounter{},
		Downloader: jobs.NewHTTPDownloader(cfg.Client.DownloadTimeout, logger),
		Importer:   jobs.NewCopyImporter(outputDir, outputName, logger),
		Metrics:    metrics.NewCollector(cfg.Metrics.Namespace, registerer, logger),
		Region:     region,
		Logger:     logger,
	})
}

func fail(logger *zap.Logger, message string, err error) {
	logger.Error(message, zap.Error(err))
	fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
	os.Exit(1)
}

func printVersion() {
	fmt.Printf("hy3d %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`hy3d - Hunyuan3D generation client

Usage:
  hy3d <command> [options]

Commands:
  generate  Submit a generation job and poll it to completion
  status    Query the status of an existing job
  secrets   Manage stored API credentials (save, test, clear)
  version   Show version information
  help      Show this help message

Options for 'generate':
  --prompt <text>        Text prompt (TEXT and TEXT_IMAGE modes)
  --mode <mode>          TEXT, IMAGE or TEXT_IMAGE (default TEXT)
  --image-url <url>      Reference image URL
  --image-b64 <data>     Reference image as base64
  --image <path>         Reference image file, repeatable
  --multiview            Treat images as multi-view references
  --format <fmt>         GLB, OBJ or FBX
  --pbr                  Enable PBR materials
  --output-dir <dir>     Where to write the downloaded model
  --output-name <name>   Base name for the downloaded model
  --config <path>        Path to configuration file (YAML)

Examples:
  hy3d generate --prompt "a cute robot toy"
  hy3d generate --mode IMAGE --image-url https://example.com/ref.png --format OBJ
  hy3d status --job 12345
  hy3d secrets save --id AKID... --key ... --mode DISK --password s3cret
  hy3d secrets test`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	logger, err := zapConfig.Build(opts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
