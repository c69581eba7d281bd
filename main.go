package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/q2316367743/ai-tools/internal/config"
	"github.com/q2316367743/ai-tools/internal/logging"
	"github.com/q2316367743/ai-tools/internal/rewrite"
	"github.com/q2316367743/ai-tools/internal/sandbox"
	"github.com/q2316367743/ai-tools/internal/server"
	"github.com/q2316367743/ai-tools/internal/server/routes"
	"github.com/q2316367743/ai-tools/internal/version"
)

const defaultConfigFile = "config.toml"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	inputPath   string
	outputPath  string
	preview     bool
}

var (
	stdIn  io.Reader = os.Stdin
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["cache_root"] = cfg.Global.CacheRoot
		fields["cache_images"] = cfg.Fetch.CacheImages
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 宿主文件系统 → Downloader → rewrite.Manager，
	// 单次处理与预览服务共享同一个缓存根目录。
	manager, err := server.NewManager(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化改写器失败: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.inputPath != "" {
		if err := processDocument(ctx, manager, opts, logger); err != nil {
			fmt.Fprintf(stdErr, "处理文档失败: %v\n", err)
			return 1
		}
		return 0
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["cache_root"] = cfg.Global.CacheRoot
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(ctx, cfg, manager, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("ai-tools", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts cliOptions
	var configFlag string

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 AI_TOOLS_CONFIG 覆盖）")
	fs.BoolVar(&opts.checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&opts.showVersion, "version", false, "显示版本信息")
	fs.StringVar(&opts.inputPath, "input", "", "待处理的 HTML 文件，- 表示标准输入；为空时启动预览服务")
	fs.StringVar(&opts.outputPath, "output", "", "结果输出文件，默认标准输出")
	fs.BoolVar(&opts.preview, "preview", false, "将结果包装为沙箱预览页面")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("解析参数失败: 未知参数 %v", fs.Args())
	}

	path := os.Getenv("AI_TOOLS_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		// 没有显式配置时，仅在当前目录存在 config.toml 才读取，否则全部使用默认值。
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	opts.configPath = path

	return opts, nil
}

// processDocument 对单个文档执行一次改写并写出结果。
func processDocument(ctx context.Context, manager *rewrite.Manager, opts cliOptions, logger *logrus.Logger) error {
	input, err := readInput(opts.inputPath)
	if err != nil {
		return err
	}

	out, report, err := manager.HandleWithReport(ctx, string(input))
	if err != nil {
		return err
	}

	if opts.preview {
		out, err = sandbox.Wrap(out, sandbox.Options{})
		if err != nil {
			return err
		}
	}

	fields := logging.BaseFields("handle", opts.configPath)
	fields["input"] = opts.inputPath
	fields["rewritten"] = report.Rewritten()
	fields["failures"] = report.Failures()
	logger.WithFields(fields).Info("文档处理完成")

	if opts.outputPath == "" {
		_, err = io.WriteString(stdOut, out)
		return err
	}
	return os.WriteFile(opts.outputPath, []byte(out), 0o644)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdIn)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取输入失败: %w", err)
	}
	return data, nil
}

func startHTTPServer(ctx context.Context, cfg *config.Config, manager *rewrite.Manager, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Handler:    manager,
		CacheRoot:  cfg.Global.CacheRoot,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterCacheRoutes(app, cfg.Global.CacheRoot, manager, logger)

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	// 预览服务只对本机宿主开放。
	if err := app.Listen(fmt.Sprintf("127.0.0.1:%d", port)); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
