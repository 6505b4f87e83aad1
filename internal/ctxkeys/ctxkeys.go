package ctxkeys

import "context"

// TraceIDKey 请求追踪 ID 的上下文键
type TraceIDKey struct{}

// WithTraceID 将追踪 ID 写入上下文
func WithTraceID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, TraceIDKey{}, id)
}

// TraceID 从上下文读取追踪 ID，不存在时返回 0
func TraceID(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(TraceIDKey{}).(uint64)
	return id
}
