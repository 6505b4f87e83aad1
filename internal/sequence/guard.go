// Package sequence 提供单调递增的请求序号（USN），用于丢弃过期的异步结果。
//
// 每次新的检查开始时调用 Begin 获取令牌；任何异步后续在产生可见副作用之前
// 都必须调用 IsCurrent 确认自己仍是最新请求，否则静默丢弃结果（最新请求获胜）。
package sequence

import "sync/atomic"

// Token 请求令牌
type Token uint64

// Guard 请求序号守卫，由调用方持有并注入，不使用包级全局变量
type Guard struct {
	usn atomic.Uint64
}

// NewGuard 创建序号守卫
func NewGuard() *Guard {
	return &Guard{}
}

// Begin 开始新的请求并返回其令牌，序号严格递增且从不重置
func (g *Guard) Begin() Token {
	return Token(g.usn.Add(1))
}

// IsCurrent 判断令牌是否为最新请求
func (g *Guard) IsCurrent(t Token) bool {
	return t != 0 && uint64(t) == g.usn.Load()
}

// Current 返回当前最新令牌，尚未开始任何请求时为 0
func (g *Guard) Current() Token {
	return Token(g.usn.Load())
}
