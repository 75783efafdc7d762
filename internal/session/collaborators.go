package session

import (
	"context"
	"fmt"

	"github.com/shards-lang/go-attach/pkg/types"
)

//go:generate mockgen -source=collaborators.go -destination=mocks/mock_session.go -package=mocks

// Launcher 启动调试会话的宿主
type Launcher interface {
	// StartDebugging 以 cfg 启动会话
	//
	// 返回 false 且无错误表示宿主拒绝启动。
	StartDebugging(ctx context.Context, cfg DebugConfiguration) (bool, error)
}

// Notifier 向用户展示消息的宿主
type Notifier interface {
	ShowError(msg string)
	ShowWarning(msg string)
}

// Chooser 让用户从运行中的实例里选择一个
type Chooser interface {
	// Choose 返回选中项的下标；用户放弃时 ok 为 false
	Choose(ctx context.Context, placeholder string, items []Choice) (index int, ok bool, err error)
}

// Choice 选择列表中的一项
type Choice struct {
	Label       string
	Description string
	Detail      string
	Instance    types.Instance
}

// choiceFor 由实例生成选择项
func choiceFor(inst types.Instance) Choice {
	return Choice{
		Label:       inst.Name,
		Description: fmt.Sprintf("%s:%d", inst.Address, inst.Port),
		Detail:      inst.Args,
		Instance:    inst,
	}
}

// NopLauncher 总是接受启动请求
//
// 只需要确认目标可达的宿主（例如 CLI）使用。
type NopLauncher struct{}

// StartDebugging 实现 Launcher
func (NopLauncher) StartDebugging(context.Context, DebugConfiguration) (bool, error) {
	return true, nil
}

// nopNotifier 丢弃所有消息
type nopNotifier struct{}

func (nopNotifier) ShowError(string)   {}
func (nopNotifier) ShowWarning(string) {}
