// Package terminal 实现终端前端
// 负责消息渲染、会话切换提示和输入循环
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"ai-chatbot/internal/config"
	"ai-chatbot/internal/service"
)

// ANSI 转义序列
const (
	ansiReset     = "\033[0m"
	ansiBlueBold  = "\033[1;34m"
	ansiGreenBold = "\033[1;32m"
	ansiRed       = "\033[31m"
	ansiItalic    = "\033[3m"
)

// defaultRuleWidth 无法获取终端宽度时分隔线的长度
const defaultRuleWidth = 48

// Engine 输入循环驱动的对话引擎
type Engine interface {
	Submit(ctx context.Context, text string) bool
	SwitchSession(ctx context.Context, sessionID int64) error
	ClearSession(ctx context.Context) (int64, error)
	Sessions(ctx context.Context) ([]int64, error)
	CurrentSessionID() int64
}

// Terminal 终端前端
type Terminal struct {
	in    io.Reader
	out   io.Writer
	fd    int  // 输出的文件描述符，非终端为 -1
	color bool // 输出是否为 TTY
	title string
	size  string // 窗口大小 WxH（像素）
}

// New 创建终端前端
// 参数:
//   - in: 输入流
//   - out: 输出流，是 TTY 时启用颜色和窗口标题
//   - cfg: 窗口标题和大小
func New(in io.Reader, out io.Writer, cfg config.AppConfig) *Terminal {
	t := &Terminal{
		in:    in,
		out:   out,
		fd:    -1,
		title: cfg.WindowTitle,
		size:  cfg.WindowSize,
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
		t.color = true
	}
	return t
}

// Setup 设置窗口标题和大小，仅在 TTY 上生效
func (t *Terminal) Setup() {
	if !t.color {
		return
	}
	t.setTitle(t.title)
	// xterm 窗口操作: CSI 4 ; height ; width t，单位像素
	if w, h, err := (config.AppConfig{WindowSize: t.size}).WindowDimensions(); err == nil {
		fmt.Fprintf(t.out, "\033[4;%d;%dt", h, w)
	}
}

// ==================== Presenter ====================

// Render 显示一条消息
// 格式为 "<sender>: <text>"，样式由 tag 决定
func (t *Terminal) Render(sender, text, tag string) {
	if !t.color {
		fmt.Fprintf(t.out, "%s: %s\n", sender, text)
		return
	}

	switch tag {
	case service.TagYou:
		fmt.Fprintf(t.out, "%s%s:%s %s\n", ansiBlueBold, sender, ansiReset, text)
	case service.TagBot:
		fmt.Fprintf(t.out, "%s%s:%s %s%s%s\n", ansiGreenBold, sender, ansiReset, ansiItalic, text, ansiReset)
	case service.TagSystem:
		fmt.Fprintf(t.out, "%s%s: %s%s\n", ansiRed, sender, text, ansiReset)
	default:
		fmt.Fprintf(t.out, "%s: %s\n", sender, text)
	}
}

// NotifySessionSwitched 显示会话分隔线并更新窗口标题
func (t *Terminal) NotifySessionSwitched(sessionID int64) {
	label := fmt.Sprintf(" session %d ", sessionID)
	width := defaultRuleWidth
	if t.fd >= 0 {
		if w, _, err := term.GetSize(t.fd); err == nil && w > 0 {
			width = w
		}
	}
	pad := width - len(label)
	if pad < 4 {
		pad = 4
	}
	left := pad / 2
	fmt.Fprintf(t.out, "%s%s%s\n", strings.Repeat("─", left), label, strings.Repeat("─", pad-left))

	if t.color {
		t.setTitle(fmt.Sprintf("%s - session %d", t.title, sessionID))
	}
}

// NotifyFatalError 显示致命错误
func (t *Terminal) NotifyFatalError(message string) {
	t.Render(service.DisplaySystem, message, service.TagSystem)
}

func (t *Terminal) setTitle(title string) {
	fmt.Fprintf(t.out, "\033]0;%s\007", title)
}

// ==================== 输入循环 ====================

// maxLineBytes 单行输入的上限
const maxLineBytes = 1 << 20

// errLineTooLong 输入行超过 maxLineBytes
var errLineTooLong = errors.New("input line too long")

// input 读取到的一行输入
type input struct {
	line string
	err  error
}

// Run 读取用户输入直到 EOF、/quit、exit 或 ctx 取消
// 每行输入交给 OnUserSubmit 处理，同一时间只处理一行
// 返回:
//   - error: 读取输入失败，EOF 和退出命令返回 nil
func (t *Terminal) Run(ctx context.Context, engine Engine) error {
	// Run 返回后读取协程随之退出
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputs := t.readInputs(ctx)
	for {
		t.prompt()
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out)
			return nil
		case in, ok := <-inputs:
			if !ok {
				fmt.Fprintln(t.out)
				return nil
			}
			switch {
			case errors.Is(in.err, errLineTooLong):
				fmt.Fprintln(t.out)
				t.system(fmt.Sprintf("Input too long, lines are limited to %d KiB", maxLineBytes>>10))
				continue
			case errors.Is(in.err, io.EOF):
				fmt.Fprintln(t.out)
				return nil
			case in.err != nil:
				fmt.Fprintln(t.out)
				t.system(fmt.Sprintf("Error reading input: %v", in.err))
				return in.err
			}
			if t.OnUserSubmit(ctx, engine, in.line) {
				return nil
			}
		}
	}
}

// readInputs 在后台逐行读取输入
// 读取错误（超长行除外）或 ctx 取消后关闭返回的通道
func (t *Terminal) readInputs(ctx context.Context) <-chan input {
	inputs := make(chan input)
	go func() {
		defer close(inputs)
		r := bufio.NewReader(t.in)
		for ctx.Err() == nil {
			line, err := readLine(r)
			select {
			case inputs <- input{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil && !errors.Is(err, errLineTooLong) {
				return
			}
		}
	}()
	return inputs
}

// readLine 读取一行，不含换行符
// 超过 maxLineBytes 的行被整行丢弃并返回 errLineTooLong
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if isPrefix {
			continue
		}
		if tooLong {
			return "", errLineTooLong
		}
		return string(buf), nil
	}
}

// OnUserSubmit 处理一行输入
// 斜杠命令在本地处理，其他内容交给对话引擎
// 返回:
//   - bool: 为 true 时结束输入循环
func (t *Terminal) OnUserSubmit(ctx context.Context, engine Engine, line string) bool {
	text := strings.TrimSpace(line)
	if !strings.HasPrefix(text, "/") {
		return engine.Submit(ctx, text)
	}

	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit":
		return true
	case "/help":
		t.printHelp()
	case "/sessions":
		t.listSessions(ctx, engine)
	case "/clear":
		n, err := engine.ClearSession(ctx)
		if err != nil {
			t.system(fmt.Sprintf("Error clearing history: %v", err))
			return false
		}
		t.system(fmt.Sprintf("Cleared %d messages from session %d.", n, engine.CurrentSessionID()))
	case "/session":
		if len(fields) != 2 {
			t.system("Usage: /session <id>")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || id <= 0 {
			t.system(fmt.Sprintf("Invalid session id %q", fields[1]))
			return false
		}
		if err := engine.SwitchSession(ctx, id); err != nil {
			t.system(fmt.Sprintf("Error loading session: %v", err))
		}
	default:
		t.system(fmt.Sprintf("Unknown command %s, type /help for a list of commands", fields[0]))
	}
	return false
}

func (t *Terminal) listSessions(ctx context.Context, engine Engine) {
	ids, err := engine.Sessions(ctx)
	if err != nil {
		t.system(fmt.Sprintf("Error listing sessions: %v", err))
		return
	}
	if len(ids) == 0 {
		t.system("No stored sessions yet.")
		return
	}

	current := engine.CurrentSessionID()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		s := strconv.FormatInt(id, 10)
		if id == current {
			s += "*"
		}
		parts = append(parts, s)
	}
	t.system("Sessions: " + strings.Join(parts, ", "))
}

func (t *Terminal) printHelp() {
	fmt.Fprintln(t.out, "Commands:")
	fmt.Fprintln(t.out, "  /session <id>  switch to session <id> and show its history")
	fmt.Fprintln(t.out, "  /sessions      list stored sessions (* marks the active one)")
	fmt.Fprintln(t.out, "  /clear         delete the history of the active session")
	fmt.Fprintln(t.out, "  /help          show this help")
	fmt.Fprintln(t.out, "  /quit          leave the chat")
	fmt.Fprintln(t.out, "Any message containing \"exit\" ends the chat after the reply.")
}

func (t *Terminal) system(text string) {
	t.Render(service.DisplaySystem, text, service.TagSystem)
}

func (t *Terminal) prompt() {
	if t.color {
		fmt.Fprint(t.out, ansiBlueBold+"> "+ansiReset)
		return
	}
	fmt.Fprint(t.out, "> ")
}
