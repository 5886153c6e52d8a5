// Package auth carries the calling operator through request contexts.
package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

const (
	OperatorHeader = "x-operator-id"
	TerminalHeader = "x-terminal-id"
)

type ctxKey int

const (
	operatorKey ctxKey = iota
	terminalKey
)

// Operator identifies who is at the till and which till it is.
type Operator struct {
	OperatorID string
	TerminalID string
}

func WithOperator(ctx context.Context, op Operator) context.Context {
	ctx = context.WithValue(ctx, operatorKey, op.OperatorID)
	return context.WithValue(ctx, terminalKey, op.TerminalID)
}

// FromIncomingMetadata reads the operator headers sent by a gRPC client.
func FromIncomingMetadata(ctx context.Context) Operator {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Operator{}
	}
	return Operator{OperatorID: first(md, OperatorHeader), TerminalID: first(md, TerminalHeader)}
}

// GetOperatorID prefers a value set by the interceptor and falls back to
// request metadata.
func GetOperatorID(ctx context.Context) string {
	if val, ok := ctx.Value(operatorKey).(string); ok && val != "" {
		return val
	}
	return FromIncomingMetadata(ctx).OperatorID
}

func GetTerminalID(ctx context.Context) string {
	if val, ok := ctx.Value(terminalKey).(string); ok && val != "" {
		return val
	}
	return FromIncomingMetadata(ctx).TerminalID
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}
