package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/pkg/log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RequestIDKey — ключ metadata с идентификатором запроса (тот же, что X-Request-Id в HTTP).
const RequestIDKey = "x-request-id"

// Logging кладёт в контекст логгер с request_id/method/peer и пишет одну запись "grpc"
// с кодом ответа и длительностью. Если клиент не прислал x-request-id, генерируется UUID;
// итоговый id возвращается клиенту в заголовке ответа.
func Logging(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		rid := requestIDFrom(ctx)
		if rid == "" {
			rid = uuid.NewString()
		}

		// Ошибку SetHeader игнорируем: вне реального gRPC-стрима (тесты) заголовки недоступны.
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, rid))

		peerAddr := "-"
		if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
			peerAddr = p.Addr.String()
		}

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr),
		)

		resp, err := handler(log.Into(ctx, l), req)

		l.Info("grpc",
			slog.String("code", status.Code(err).String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

func requestIDFrom(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if v := md.Get(RequestIDKey); len(v) > 0 {
		return v[0]
	}

	return ""
}
