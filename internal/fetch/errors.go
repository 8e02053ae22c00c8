package fetch

import (
	"errors"
	"fmt"
)

// 抓取层错误分类（采集器按 errors.Is/As 区分重试与放弃）
var (
	// ErrTimeout 请求超时（可重试）
	ErrTimeout = errors.New("请求超时")
	// ErrRobotsBlocked robots.txt 禁止抓取（不重试）
	ErrRobotsBlocked = errors.New("robots.txt 禁止抓取该路径")
	// ErrRateLimited 本地每分钟请求数已达上限（不发请求直接失败）
	ErrRateLimited = errors.New("已达到每分钟请求数上限")
	// ErrRetriesExhausted 重试次数耗尽
	ErrRetriesExhausted = errors.New("重试次数已耗尽")
)

// StatusError 非2xx响应错误（429/5xx可重试，其余不重试）
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("请求 %s 返回状态码 %d", e.URL, e.Code)
}

// Retryable 判断该状态码是否应触发重试
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}
