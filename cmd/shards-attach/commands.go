package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	attach "github.com/shards-lang/go-attach"
	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/pkg/types"
)

// defaultWait list/attach 等待广播的默认时长（实例每秒左右广播一次）
const defaultWait = 3 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              list
// ════════════════════════════════════════════════════════════════════════════

func runList(ctx context.Context, e *env, args []string) error {
	var g globalFlags
	var wait time.Duration
	var asJSON, runningOnly bool

	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	g.addFlags(fs)
	fs.DurationVarP(&wait, "wait", "w", defaultWait, "收集广播的时长")
	fs.BoolVar(&asJSON, "json", false, "以 JSON 输出")
	fs.BoolVar(&runningOnly, "running", false, "只列出运行中的实例")
	if ok, err := parseFlags(fs, args, e.stderr); !ok {
		return err
	}

	client, err := e.newClient(ctx, &g, nil)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := sleepCtx(ctx, wait); err != nil {
		return err
	}

	records := client.Instances()
	if runningOnly {
		records = runningRecords(records)
	}
	if asJSON {
		return writeJSON(e.stdout, records)
	}
	return writeTable(e.stdout, records)
}

// ════════════════════════════════════════════════════════════════════════════
//                              watch
// ════════════════════════════════════════════════════════════════════════════

func runWatch(ctx context.Context, e *env, args []string) error {
	var g globalFlags

	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	g.addFlags(fs)
	if ok, err := parseFlags(fs, args, e.stderr); !ok {
		return err
	}

	client, err := e.newClient(ctx, &g, nil)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	// 回调按变更顺序串行调用，可以直接写输出
	enc := json.NewEncoder(e.stdout)
	sub := client.Subscribe(func(records []types.Record) {
		_ = enc.Encode(records)
	})
	defer client.Unsubscribe(sub)

	<-ctx.Done()
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              attach
// ════════════════════════════════════════════════════════════════════════════

// attachFlags attach 子命令参数
type attachFlags struct {
	globalFlags
	address       string
	port          int
	maxRetries    int
	retryInterval time.Duration
	launchFile    string
	wait          time.Duration
}

func runAttach(ctx context.Context, e *env, args []string) error {
	var f attachFlags

	fs := pflag.NewFlagSet("attach", pflag.ContinueOnError)
	f.addFlags(fs)
	fs.StringVar(&f.address, "address", "", "目标地址")
	fs.IntVar(&f.port, "port", 0, "目标端口")
	fs.IntVar(&f.maxRetries, "max-retries", 0, "最大探测次数")
	fs.DurationVar(&f.retryInterval, "retry-interval", 0, "重试间隔")
	fs.StringVar(&f.launchFile, "launch", "", "编辑器启动配置文件（- 表示标准输入）")
	fs.DurationVarP(&f.wait, "wait", "w", defaultWait, "交互选择前收集广播的时长")
	if ok, err := parseFlags(fs, args, e.stderr); !ok {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("多余的参数: %s", fs.Arg(1))
	}

	lc, direct, err := f.launchConfig(fs, e.stdin)
	if err != nil {
		return err
	}

	client, err := e.newClient(ctx, &f.globalFlags, nil,
		attach.WithLauncher(&printLauncher{w: e.stdout}),
		attach.WithNotifier(&streamNotifier{w: e.stderr}),
	)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	progress := attach.WithProgress(func(p attach.Progress) {
		if p.State == attach.StateProbing {
			fmt.Fprintf(e.stderr, "正在连接 %s（第 %d/%d 次）\n", p.Target, p.Attempt, p.MaxAttempts)
		}
	})

	attachCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := errgroup.WithContext(attachCtx)
	done := make(chan struct{})

	group.Go(func() error {
		defer close(done)
		switch {
		case fs.NArg() == 1:
			if err := sleepCtx(gctx, f.wait); err != nil {
				return err
			}
			return client.AttachByID(gctx, fs.Arg(0), progress)
		case direct:
			return client.AttachLaunch(gctx, lc, progress)
		default:
			if err := sleepCtx(gctx, f.wait); err != nil {
				return err
			}
			return client.SelectAndAttach(gctx, &promptChooser{in: e.stdin, out: e.stderr}, progress)
		}
	})

	group.Go(func() error {
		signals := e.signals
		if signals == nil {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(ch)
			signals = ch
		}
		select {
		case <-signals:
			fmt.Fprintln(e.stderr, "收到中断，正在取消附加")
			cancel()
		case <-done:
		}
		return nil
	})

	return group.Wait()
}

// launchConfig 合成启动配置
//
// direct 为 true 表示按地址附加（指定了 --launch 或 --address/--port），
// 否则按实例 ID 或交互选择附加。
func (f *attachFlags) launchConfig(fs *pflag.FlagSet, stdin io.Reader) (config.LaunchConfig, bool, error) {
	var lc config.LaunchConfig
	direct := false

	if f.launchFile != "" {
		var data []byte
		var err error
		if f.launchFile == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(f.launchFile)
		}
		if err != nil {
			return lc, false, fmt.Errorf("读取启动配置失败: %w", err)
		}
		if lc, err = config.ParseLaunchConfig(data); err != nil {
			return lc, false, err
		}
		direct = true
	}

	if fs.Changed("address") {
		lc.Address = &f.address
		direct = true
	}
	if fs.Changed("port") {
		lc.Port = &f.port
		direct = true
	}
	if fs.Changed("max-retries") {
		lc.MaxRetries = &f.maxRetries
	}
	if fs.Changed("retry-interval") {
		d := config.Duration(f.retryInterval)
		lc.RetryInterval = &d
	}

	if direct && fs.NArg() > 0 {
		return lc, false, fmt.Errorf("实例 ID 与 --address/--port/--launch 不能同时使用")
	}
	return lc, direct, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              serve
// ════════════════════════════════════════════════════════════════════════════

func runServe(ctx context.Context, e *env, args []string) error {
	var g globalFlags
	var listen string
	var noMetrics bool

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	g.addFlags(fs)
	fs.StringVarP(&listen, "listen", "l", "", "HTTP 桥监听地址")
	fs.BoolVar(&noMetrics, "no-metrics", false, "不暴露 /metrics")
	if ok, err := parseFlags(fs, args, e.stderr); !ok {
		return err
	}

	client, err := e.newClient(ctx, &g, func(cfg *config.Config) {
		if listen != "" {
			cfg.Bridge.ListenAddr = listen
		}
		if noMetrics {
			cfg.Bridge.EnableMetrics = false
		}
	}, attach.WithBridge())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	fmt.Fprintf(e.stdout, "HTTP 桥已启动: http://%s\n", client.BridgeAddr())

	<-ctx.Done()
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              version
// ════════════════════════════════════════════════════════════════════════════

func runVersion(_ context.Context, e *env, _ []string) error {
	fmt.Fprintln(e.stdout, attach.VersionInfo())
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              辅助函数
// ════════════════════════════════════════════════════════════════════════════

// sleepCtx 等待 d 或 ctx 取消
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runningRecords(records []types.Record) []types.Record {
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if r.IsRunning {
			out = append(out, r)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, records []types.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "未发现实例")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tARGS")
	for _, r := range records {
		status := "stale"
		if r.IsRunning {
			status = "running"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, status, r.ExecutableArgs)
	}
	return tw.Flush()
}
