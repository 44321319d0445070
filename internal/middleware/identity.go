// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	userIDHeader = "X-User-ID"
	roleHeader   = "X-User-Role"
)

// RoleAdmin は全決定の全文閲覧が許可される管理者ロール。
const RoleAdmin = "admin"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// roleContextKey はリクエストコンテキストにロールを格納するためのキー。
var roleContextKey = contextKey("role")

// NewIdentityMiddleware は前段プラットフォームが付与する認証ヘッダーを
// 読み取り、ユーザーIDとロールをリクエストコンテキストに注入する
// ミドルウェアを返す。ヘッダーがない場合は匿名リクエストとして通す。
// 認証そのものは前段プラットフォームの責務。
func NewIdentityMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID != "" {
				ctx = context.WithValue(ctx, userIDContextKey, userID)
				role := strings.TrimSpace(r.Header.Get(roleHeader))
				if role != "" {
					ctx = context.WithValue(ctx, roleContextKey, role)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser は認証済みユーザーを必須とするミドルウェアを返す。
// コンテキストにユーザーIDがない場合は401 Unauthorizedを返す。
// IdentityMiddlewareの後に配置すること。
func RequireUser() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := UserIDFromContext(r.Context()); err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// RoleFromContext はリクエストコンテキストからロールを取得する。
// ロールがない場合は空文字列を返す。
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleContextKey).(string)
	return role
}

// ContextWithIdentity はコンテキストにユーザーIDとロールを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, userID, role string) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, userIDContextKey, userID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, roleContextKey, role)
	}
	return ctx
}
