// Package main 提供 shards-attach 命令行入口
//
// 子命令：
//
//	list     等待一段时间后列出发现到的实例
//	watch    持续打印实例列表的变化
//	attach   附加到指定实例或地址，Ctrl+C 取消重试
//	serve    运行 HTTP 桥，直到收到退出信号
//	version  显示版本信息
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	attach "github.com/shards-lang/go-attach"
	"github.com/shards-lang/go-attach/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode 取消返回 130（与 shell 对 SIGINT 的约定一致），其它错误返回 1
func exitCode(err error) int {
	if errors.Is(err, attach.ErrCancelled) || errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

// ════════════════════════════════════════════════════════════════════════════
//                              全局参数
// ════════════════════════════════════════════════════════════════════════════

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	configFile    string
	logLevel      string
	logFormat     string
	discoveryPort int
}

// addFlags 注册共享参数
func (g *globalFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configFile, "config", "c", "", "配置文件路径（JSON/JSONC）")
	fs.StringVar(&g.logLevel, "log-level", "", "日志级别，如 info 或 connect=debug,warn")
	fs.StringVar(&g.logFormat, "log-format", "", "日志格式（text 或 json）")
	fs.IntVar(&g.discoveryPort, "discovery-port", 0, "覆盖发现端口")
}

// loadConfig 按 文件 → 环境变量 → 命令行 的顺序合成配置
func (g *globalFlags) loadConfig(lookup config.LookupFunc) (*config.Config, error) {
	var cfg *config.Config
	if g.configFile != "" {
		var err error
		cfg, err = config.LoadFile(g.configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewConfig()
	}

	if err := config.ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if g.discoveryPort != 0 {
		cfg.Discovery = cfg.Discovery.WithPort(g.discoveryPort)
	}
	return cfg, cfg.Validate()
}

// ════════════════════════════════════════════════════════════════════════════
//                              分发
// ════════════════════════════════════════════════════════════════════════════

// env 子命令运行环境
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lookup config.LookupFunc

	// signals 中断信号来源，nil 时订阅进程信号
	signals <-chan os.Signal

	// extra 附加到客户端的选项（测试注入 Launcher、Prober 等）
	extra []attach.Option
}

// command 子命令
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

func commands() []command {
	return []command{
		{"list", "列出发现到的实例", runList},
		{"watch", "持续打印实例列表的变化", runWatch},
		{"attach", "附加到实例或地址", runAttach},
		{"serve", "运行 HTTP 桥", runServe},
		{"version", "显示版本信息", runVersion},
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr, lookup: os.LookupEnv}
	return dispatch(ctx, e, args)
}

func dispatch(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		printUsage(e.stderr)
		return errors.New("缺少子命令")
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage(e.stdout)
		return nil
	case "--version":
		return runVersion(ctx, e, nil)
	}

	for _, cmd := range commands() {
		if cmd.name == args[0] {
			return cmd.run(ctx, e, args[1:])
		}
	}

	printUsage(e.stderr)
	return fmt.Errorf("未知子命令: %s", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "用法: shards-attach <子命令> [参数]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "子命令:")
	for _, cmd := range commands() {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "使用 shards-attach <子命令> --help 查看参数")
}

// parseFlags 解析子命令参数
//
// 返回 false 表示已打印帮助，调用方应直接返回。
func parseFlags(fs *pflag.FlagSet, args []string, stderr io.Writer) (bool, error) {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// newClient 以合成后的配置创建并启动客户端
//
// mutate 在命令行覆盖之后、校验之前修改配置，可以为 nil。
func (e *env) newClient(ctx context.Context, g *globalFlags, mutate func(*config.Config), opts ...attach.Option) (*attach.Client, error) {
	cfg, err := g.loadConfig(e.lookup)
	if err != nil {
		return nil, fmt.Errorf("配置错误: %w", err)
	}
	if mutate != nil {
		mutate(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("配置错误: %w", err)
		}
	}

	all := append([]attach.Option{attach.WithConfig(cfg)}, opts...)
	all = append(all, e.extra...)
	return attach.Start(ctx, all...)
}
