// Package process 清理残留的浏览器驱动进程
//
// 上次运行异常退出时 chromedriver / chrome 可能没有被关闭，占用端口。
// 启动前按名称找到并终止这些进程。
package process

import (
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// DriverNames 默认清理的进程名
var DriverNames = []string{"chromedriver"}

// ProcessInfo 进程信息
type ProcessInfo struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// FindProcess 按名称查找进程 (不区分大小写，忽略 .exe 后缀，名称需完全相同)
func FindProcess(name string) ([]ProcessInfo, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	want := normalizeName(name)
	var matches []ProcessInfo

	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}

		procName, err := proc.Name()
		if err != nil {
			continue
		}

		if normalizeName(procName) == want {
			exe, _ := proc.Exe()
			matches = append(matches, ProcessInfo{
				PID:  int(pid),
				Name: procName,
				Path: exe,
			})
		}
	}

	return matches, nil
}

// IsProcessRunning 检查进程是否正在运行
func IsProcessRunning(pid int) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}

// KillProcess 终止进程
func KillProcess(pid int) error {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("进程不存在: PID=%d", pid)
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("终止进程 %d 失败: %w", pid, err)
	}
	return nil
}

// KillByName 终止所有同名进程 (不包括自身)，返回终止的数量
func KillByName(name string) (int, error) {
	procs, err := FindProcess(name)
	if err != nil {
		return 0, err
	}

	self := os.Getpid()
	killed := 0
	var lastErr error
	for _, p := range procs {
		if p.PID == self {
			continue
		}
		if err := KillProcess(p.PID); err != nil {
			lastErr = err
			continue
		}
		killed++
	}
	return killed, lastErr
}

// CleanupDrivers 终止 DriverNames 中的所有进程
func CleanupDrivers() (int, error) {
	total := 0
	var lastErr error
	for _, name := range DriverNames {
		n, err := KillByName(name)
		total += n
		if err != nil {
			lastErr = err
		}
	}
	return total, lastErr
}

func normalizeName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

// GetSelf 当前进程信息
func GetSelf() (*ProcessInfo, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("读取当前进程失败: %w", err)
	}
	name, err := proc.Name()
	if err != nil {
		return nil, fmt.Errorf("读取进程名失败: %w", err)
	}
	exe, _ := proc.Exe()
	return &ProcessInfo{PID: os.Getpid(), Name: name, Path: exe}, nil
}
