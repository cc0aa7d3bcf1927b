package obs

import "context"

type requestInfoKey struct{}

// requestInfo is shared by pointer so handlers deeper in the chain can
// annotate the access log line.
type requestInfo struct {
	id     string
	userID uint
}

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func infoFrom(ctx context.Context) *requestInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// RequestIDFromContext returns the id assigned by RequestLogger, if any.
func RequestIDFromContext(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

// SetUserID records the authenticated user on the current request's log line.
func SetUserID(ctx context.Context, userID uint) {
	if info := infoFrom(ctx); info != nil {
		info.userID = userID
	}
}
