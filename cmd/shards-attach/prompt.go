package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	attach "github.com/shards-lang/go-attach"
)

// printLauncher 把调试配置以 JSON 写到标准输出，交给编辑器或脚本继续启动会话
type printLauncher struct {
	w io.Writer
}

func (l *printLauncher) StartDebugging(_ context.Context, cfg attach.DebugConfiguration) (bool, error) {
	if err := json.NewEncoder(l.w).Encode(cfg); err != nil {
		return false, err
	}
	return true, nil
}

// streamNotifier 把通知写到标准错误
type streamNotifier struct {
	w io.Writer
}

func (n *streamNotifier) ShowError(msg string) {
	fmt.Fprintf(n.w, "错误: %s\n", msg)
}

func (n *streamNotifier) ShowWarning(msg string) {
	fmt.Fprintf(n.w, "警告: %s\n", msg)
}

// promptChooser 在终端列出候选项并读取编号
//
// 空行或 EOF 视为放弃。
type promptChooser struct {
	in  io.Reader
	out io.Writer
}

func (c *promptChooser) Choose(ctx context.Context, placeholder string, items []attach.Choice) (int, bool, error) {
	fmt.Fprintln(c.out, placeholder)
	for i, item := range items {
		fmt.Fprintf(c.out, "  [%d] %s  %s\n", i+1, item.Label, item.Description)
		if item.Detail != "" {
			fmt.Fprintf(c.out, "      %s\n", item.Detail)
		}
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	reader := bufio.NewReader(c.in)

	for {
		fmt.Fprintf(c.out, "编号 (1-%d): ", len(items))
		go func() {
			line, err := reader.ReadString('\n')
			ch <- answer{line, err}
		}()

		var a answer
		select {
		case <-ctx.Done():
			return 0, false, nil
		case a = <-ch:
		}

		text := strings.TrimSpace(a.line)
		if text == "" {
			if a.err != nil && a.err != io.EOF {
				return 0, false, a.err
			}
			return 0, false, nil
		}

		n, err := strconv.Atoi(text)
		if err == nil && n >= 1 && n <= len(items) {
			return n - 1, true, nil
		}
		fmt.Fprintf(c.out, "无效的编号: %s\n", text)
		if a.err != nil {
			return 0, false, nil
		}
	}
}
