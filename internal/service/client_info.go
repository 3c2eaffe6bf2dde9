package service

import "context"

type clientInfoKey struct{}

// ClientInfo describes the caller's network origin for audit entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// ContextWithClientInfo attaches caller metadata to ctx.
func ContextWithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext returns the caller metadata, if any.
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
