package config

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// LoadUserAgents 读取 user agent 列表，每行一个，忽略空行和 # 注释
func LoadUserAgents(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开 user agent 文件失败: %w", err)
	}
	defer f.Close()

	var agents []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		agents = append(agents, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取 user agent 文件失败: %w", err)
	}
	return agents, nil
}

// PickUserAgent 随机选择一个 user agent，文件未配置或为空时返回空串
func (s *Settings) PickUserAgent() (string, error) {
	if s.UserAgentsFile == "" {
		return "", nil
	}
	agents, err := LoadUserAgents(s.UserAgentsFile)
	if err != nil {
		return "", err
	}
	if len(agents) == 0 {
		return "", nil
	}
	return agents[rand.Intn(len(agents))], nil
}
